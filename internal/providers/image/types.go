package image

import "context"

// InputRole names what an attached image means to the generation call.
type InputRole string

const (
	// RoleBase is the image being edited or varied.
	RoleBase InputRole = "base"
	// RoleMask is the binary edit mask paired with the base.
	RoleMask InputRole = "mask"
	// RoleStyle is an optional style reference for final composition.
	RoleStyle InputRole = "style"
)

// Input is one image attached to a generation request. The combination of
// roles distinguishes the modes: none for text-to-image, base for
// edit/variation, base+mask for in/out-paint, base+style for composition.
type Input struct {
	Role InputRole
	Data []byte
	MIME string
}

// GenerateRequest describes a normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Count          int
	RequestID      string
	Inputs         []Input
}

// Asset represents a generated or edited image.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Asset, error)
}
