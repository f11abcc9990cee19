//go:build nopdf

package export

// The PDF renderer is compiled out under the nopdf tag. No renderer
// registers for "pdf", so AvailableFormats omits it and Export returns an
// UnsupportedError instead of failing at runtime.
