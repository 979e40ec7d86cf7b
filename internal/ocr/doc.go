// Package ocr reads title-block text from drawings using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). The text is
// optional context: it is summarized in CV metadata and appended to the
// extraction prompt so the vision model can cross-check part number and
// material against what is printed in the title block.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Error Handling
//
// Functions return errors for unsupported language codes, Tesseract
// initialization failures and crop regions outside the image. Callers in the
// analysis pipeline log OCR errors and continue without title-block text.
package ocr
