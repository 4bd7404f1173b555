package domain

import "fmt"

// ConceptStock is one concept/stock pairing from the upstream concept feed.
// One record becomes one row of the concept collection.
type ConceptStock struct {
	ConceptID  int64
	Name       string
	Definition string
	StockCode  string
	StockName  string
	Reason     string
	IsLeader   bool
}

// DocText builds the canonical document text stored and embedded for this
// record. The format is fixed: changing it invalidates every stored vector.
func (c ConceptStock) DocText() string {
	return fmt.Sprintf("%s: %s。%s(%s), %s", c.Name, c.Definition, c.StockName, c.StockCode, c.Reason)
}
