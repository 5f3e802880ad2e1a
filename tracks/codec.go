package tracks

import (
	"github.com/drpcorg/vcs"
)

// Scalar payloads keep their value in the delta property.

func scalarProp(k vcs.Kind, payload []byte) ([]byte, error) {
	tree, err := vcs.ParsePayload(k, payload)
	if err != nil {
		return nil, err
	}
	val, ok := tree.Get(vcs.DeltaProp)
	if !ok || len(tree.Children) != 0 {
		return nil, &vcs.DecodeError{Kind: k, Err: vcs.ErrMalformedPayload}
	}
	return val, nil
}

func DecodeString(k vcs.Kind, payload []byte) (string, error) {
	val, err := scalarProp(k, payload)
	return string(val), err
}

func DecodeBool(k vcs.Kind, payload []byte) (bool, error) {
	tree, err := vcs.ParsePayload(k, payload)
	if err != nil {
		return false, err
	}
	b, ok := tree.GetBool(vcs.DeltaProp)
	if !ok {
		return false, &vcs.DecodeError{Kind: k, Err: vcs.ErrMalformedPayload}
	}
	return b, nil
}

func DecodeUint(k vcs.Kind, payload []byte) (uint64, error) {
	tree, err := vcs.ParsePayload(k, payload)
	if err != nil {
		return 0, err
	}
	u, ok := tree.GetUint(vcs.DeltaProp)
	if !ok {
		return 0, &vcs.DecodeError{Kind: k, Err: vcs.ErrMalformedPayload}
	}
	return u, nil
}

func DecodeInt(k vcs.Kind, payload []byte) (int64, error) {
	tree, err := vcs.ParsePayload(k, payload)
	if err != nil {
		return 0, err
	}
	i, ok := tree.GetInt(vcs.DeltaProp)
	if !ok {
		return 0, &vcs.DecodeError{Kind: k, Err: vcs.ErrMalformedPayload}
	}
	return i, nil
}
