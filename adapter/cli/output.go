package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
)

// PrintListing writes a listing as a table, or as JSON when asJSON is set.
func PrintListing(w io.Writer, listing domain.Listing, asJSON bool) error {
	if asJSON {
		if listing == nil {
			listing = domain.Listing{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	if len(listing) == 0 {
		fmt.Fprintln(w, "No parts.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tPART")
	for _, p := range listing {
		fmt.Fprintf(tw, "%d\t%s\n", p.Position, p.PartID)
	}
	return tw.Flush()
}
