// Package printing turns collection receipts into printable documents.
//
// TemplateEngine renders a receipt into HTML from an embedded html/template;
// ChromedpRenderer prints that HTML to PDF through a headless Chrome reached
// over the DevTools protocol. When no browser is configured, callers serve
// the HTML itself.
package printing
