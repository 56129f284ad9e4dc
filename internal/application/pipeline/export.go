package pipeline

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/turtacn/MolVista/internal/domain/dataset"
	"github.com/turtacn/MolVista/pkg/errors"
)

// WriteResultsCSV writes the sidecar results table: one row per record with
// every numeric key present anywhere in the dataset, the chemical-space
// coordinates, and the docking outcome.  Absent values stay empty cells so
// absence survives the round trip.
func WriteResultsCSV(path string, col *dataset.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "cannot create results table").
			WithDetail("path=" + path)
	}
	defer f.Close()

	keys := col.NumericKeys()
	header := []string{"index", "name", "smiles"}
	header = append(header, keys...)
	header = append(header,
		"pca_x", "pca_y", "tsne_x", "tsne_y",
		"docking_score", "docking_pose_rank", "docking_pose_ref")

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "cannot write results table")
	}

	for _, rec := range col.Records {
		row := []string{strconv.Itoa(rec.Index), rec.Name, rec.SMILES}
		for _, key := range keys {
			if v, ok := rec.Value(key); ok {
				row = append(row, formatValue(v))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, embeddingCells(rec, dataset.EmbedPCA)...)
		row = append(row, embeddingCells(rec, dataset.EmbedTSNE)...)
		if rec.Docking != nil {
			row = append(row, formatValue(rec.Docking.Score),
				strconv.Itoa(rec.Docking.PoseRank), rec.Docking.PoseRef)
		} else {
			row = append(row, "", "", "")
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.CodeExportFailed, "cannot write results table")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CodeExportFailed, "cannot flush results table")
	}
	return nil
}

func embeddingCells(rec *dataset.Record, kind string) []string {
	if coord, ok := rec.Embeddings[kind]; ok {
		return []string{formatValue(coord[0]), formatValue(coord[1])}
	}
	return []string{"", ""}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
