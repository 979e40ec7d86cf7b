// Package vision prepares a drawing image for extraction.
//
// Processor chains the imaging and detection packages: it loads the file,
// converts it to grayscale, enhances contrast, detects layout regions and
// encodes the original drawing, the enhanced drawing and one crop per region
// as PNG data URLs. It also reports CV metadata (region count and types,
// image shape, text-mask coverage and, when OCR is enabled, title-block text).
//
// Region classification happens on the working copy; the MinRegionArea
// threshold therefore applies to the downscaled image when MaxImageDimension
// is set.
package vision
