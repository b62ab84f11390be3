package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixScene    = "scene"
	PrefixLayer    = "layer"
	PrefixShape    = "shape"
	PrefixSnapshot = "snap"
	PrefixAsset    = "asset"
	PrefixToken    = "tok"
	PrefixViewer   = "viewer"
	PrefixOp       = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewSceneID() string    { return New(PrefixScene) }
func NewLayerID() string    { return New(PrefixLayer) }
func NewShapeID() string    { return New(PrefixShape) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewTokenID() string    { return New(PrefixToken) }
func NewViewerID() string   { return New(PrefixViewer) }
func NewOpID() string       { return New(PrefixOp) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
