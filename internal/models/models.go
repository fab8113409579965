package models

// Field names accepted by the label form
const (
	FieldProductName  = "productName"
	FieldQuantity     = "quantity"
	FieldSKU          = "sku"
	FieldProductImage = "productImage"
)

// LabelRecord represents the data printed on one 10x15 shipping label
type LabelRecord struct {
	ProductName  string `json:"productName" yaml:"productname"`
	Quantity     string `json:"quantity" yaml:"quantity"` // kept as typed, converted at render time
	SKU          string `json:"sku" yaml:"sku"`
	ProductImage string `json:"productImage,omitempty" yaml:"productimage,omitempty"` // URL or data URI
}

// Patch is a partial LabelRecord; nil fields are left untouched
type Patch struct {
	ProductName  *string `json:"productName,omitempty"`
	Quantity     *string `json:"quantity,omitempty"`
	SKU          *string `json:"sku,omitempty"`
	ProductImage *string `json:"productImage,omitempty"`
}

// Apply merges the patch into r and returns the result
func (p Patch) Apply(r LabelRecord) LabelRecord {
	if p.ProductName != nil {
		r.ProductName = *p.ProductName
	}
	if p.Quantity != nil {
		r.Quantity = *p.Quantity
	}
	if p.SKU != nil {
		r.SKU = *p.SKU
	}
	if p.ProductImage != nil {
		r.ProductImage = *p.ProductImage
	}
	return r
}

// Patch returns a patch that replaces every field with r's values
func (r LabelRecord) Patch() Patch {
	return Patch{
		ProductName:  &r.ProductName,
		Quantity:     &r.Quantity,
		SKU:          &r.SKU,
		ProductImage: &r.ProductImage,
	}
}

// FieldPatch builds a single-field patch. ok is false for unknown field names.
func FieldPatch(field, value string) (Patch, bool) {
	switch field {
	case FieldProductName:
		return Patch{ProductName: &value}, true
	case FieldQuantity:
		return Patch{Quantity: &value}, true
	case FieldSKU:
		return Patch{SKU: &value}, true
	case FieldProductImage:
		return Patch{ProductImage: &value}, true
	}
	return Patch{}, false
}

// Ready reports whether the record has the fields required to print
func (r LabelRecord) Ready() bool {
	return r.ProductName != "" && r.SKU != ""
}

// SessionSummary is the API view of a label session
type SessionSummary struct {
	ID        string      `json:"id"`
	Record    LabelRecord `json:"record"`
	CanSubmit bool        `json:"can_submit"`
	Scanner   ScannerView `json:"scanner"`
	Printed   bool        `json:"printed"`
}

// ScannerView is the API view of a capture session
type ScannerView struct {
	State    string `json:"state"`
	Active   bool   `json:"active"`
	Error    string `json:"error,omitempty"`
	CanStart bool   `json:"can_start"`
}
