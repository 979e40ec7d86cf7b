// Package detection finds layout regions in mechanical drawings.
//
// A drawing sheet is split into coarse regions (title block, tables, drawing
// views, details) by finding the external contours of a Canny edge map and
// classifying each contour's bounding box with fixed position and aspect-ratio
// heuristics. Nested contours (text inside a title block, features inside a
// view) are not reported separately.
//
// # Coordinate System
//
// Bounding boxes use 0-based pixel coordinates with (X, Y) at the top-left
// corner and W, H as the extent. No rotation handling is performed; all boxes
// are axis-aligned.
//
// # Classification
//
// ClassifyRegion is a total, deterministic function of the box and image size.
// Its rules are evaluated in a fixed order and the first match wins, so a box
// in the bottom-right corner is a title block even when it is also wide enough
// to be a table.
//
// # Limitations
//
//   - Heuristics assume a conventional sheet layout with the title block at
//     the bottom right
//   - Open linework that does not close a region is filtered by area
//   - Very large images should be downscaled first (see imaging.Downscale)
package detection
