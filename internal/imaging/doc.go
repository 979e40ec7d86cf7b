// Package imaging provides the raster operations used to prepare a drawing for
// region detection and for submission to a vision model.
//
// This package implements image loading, grayscale conversion, contrast
// enhancement, text masking, Canny edge detection, cropping, downscaling and
// PNG data-URL encoding. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based. Derived images (gray,
// enhanced, edge maps, masks, crops) always have bounds starting at (0,0), so
// coordinates computed on them map directly onto the source image.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently on different
// images. Inputs are never mutated.
//
// # Encoding
//
// EncodeDataURL produces "data:image/png;base64,<payload>". PNG is lossless,
// so DecodeDataURL(EncodeDataURL(img)) is pixel-identical to img.
//
// # Error Handling
//
// Load wraps every open or decode failure with ErrUnreadableImage, which the
// pipeline treats as a fatal input error. Encoding errors are returned as-is.
package imaging
