package payload

import "dashboard/internal/stats"

// Columns returns the flattened table columns for the subject.
func (r *Recommendations) Columns() []string {
	if r.Subject == SubjectCustomer {
		return []string{"customer_id", "recommended_product_id", "based_on_product", "confidence", "lift"}
	}
	return []string{"product_id", "recommended_product_id", "confidence", "lift", "support"}
}

// Rows flattens every entry into one row per suggestion. Absent figures are
// nil.
func (r *Recommendations) Rows() []stats.Record {
	var rows []stats.Record
	for _, e := range r.Entries {
		for _, rec := range e.Recommendations {
			row := stats.Record{
				"recommended_product_id": rec["product_id"],
				"confidence":             rec["confidence"],
				"lift":                   rec["lift"],
			}
			if r.Subject == SubjectCustomer {
				row["customer_id"] = e.SubjectID
				row["based_on_product"] = rec["based_on_product"]
			} else {
				row["product_id"] = e.SubjectID
				row["support"] = rec["support"]
			}
			rows = append(rows, row)
		}
	}
	return rows
}
