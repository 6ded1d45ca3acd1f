// Package types defines the record and collection types shared by the viewer
// and the catalog. A Record is kept as the verbatim JSON object the endpoint
// returned; display fields are read from it by gjson path.
package types
