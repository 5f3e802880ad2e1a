//go:build !vcsdebug

package vcs

const debugAsserts = false
