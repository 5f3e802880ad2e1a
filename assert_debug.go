//go:build vcsdebug

package vcs

const debugAsserts = true
