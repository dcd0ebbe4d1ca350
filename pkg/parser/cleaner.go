package parser

// Clean parses both time fields of every row. Rows with both timestamps
// present are kept in their original order; the rest are returned as
// dropped. Parse failures never escape as errors.
func Clean(rows []CanonicalRow, tp *TimestampParser) ([]ParsedRow, []DroppedRow) {
	kept := make([]ParsedRow, 0, len(rows))
	var dropped []DroppedRow

	for _, row := range rows {
		pr := ParsedRow{CanonicalRow: row}
		pr.Start, pr.StartErr = tp.Parse(row.StartRaw)
		pr.End, pr.EndErr = tp.Parse(row.EndRaw)

		if pr.Complete() {
			kept = append(kept, pr)
			continue
		}

		d := DroppedRow{SourceRowIndex: row.SourceRowIndex}
		if pr.StartErr != nil {
			d.StartReason = pr.StartErr.Error()
		}
		if pr.EndErr != nil {
			d.EndReason = pr.EndErr.Error()
		}
		dropped = append(dropped, d)
	}

	return kept, dropped
}
