// Package services implements the product lookup step of the scan pipeline.
//
// # Product Lookup
//
// [ProductLookup] is the interface the pipeline controller depends on. [SearchService] implements it by
// issuing one GET against a configurable search endpoint and reading the result page's headings.
//
// The query is the barcode followed by a qualifier (default "product"). It is URL-encoded with spaces as %20
// and substituted for {query} in the endpoint template, e.g.
//
//	https://www.google.com/search?q=012345678905%20product
//
// Headings are matched with a CSS selector (default h3) using goquery. The first non-empty heading becomes the
// snippet and the query URL becomes the product page; when nothing matches the result is empty and carries no URL.
//
// # Request Headers
//
// Search engines serve degraded pages to unknown clients. The user agent, extra headers, and cookie come from
// config and can be imported from a browser's "Copy as cURL" output with [shared.ParseCurlCommand].
//
// # Error Handling
//
// Errors are returned, never raised:
//   - [shared.ErrInvalidInput] : empty barcode
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrTimeout] : the configured or caller deadline passed
package services
