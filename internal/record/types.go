// Package record defines the product, listing and match records exchanged
// between the loader, the matching engine and the match sinks.
package record

// Product is one canonical product line from the products file.
type Product struct {
	ProductName   string `json:"product_name"`
	Manufacturer  string `json:"manufacturer"`
	Family        string `json:"family,omitempty"`
	Model         string `json:"model"`
	AnnouncedDate string `json:"announced-date,omitempty"`
}

// Listing is one free-text listing line from the listings file.
type Listing struct {
	Title        string `json:"title"`
	Manufacturer string `json:"manufacturer"`
	Currency     string `json:"currency"`
	Price        string `json:"price"`
}

// ListingSnapshot is a value copy of an indexed listing taken at match time.
// The source listing is deleted from the index right after the copy is made.
type ListingSnapshot struct {
	Title        string `json:"title"`
	Manufacturer string `json:"manufacturer"`
	Currency     string `json:"currency"`
	Price        string `json:"price"`
}

// Snapshot copies the listing's stored fields.
func (l Listing) Snapshot() ListingSnapshot {
	return ListingSnapshot{
		Title:        l.Title,
		Manufacturer: l.Manufacturer,
		Currency:     l.Currency,
		Price:        l.Price,
	}
}

// Match is the output record for one product: its name and every listing
// claimed for it, in ascending listing id order.
type Match struct {
	ProductName string            `json:"product_name"`
	Listings    []ListingSnapshot `json:"listings"`
}
