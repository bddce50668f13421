package filestore

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetParallelism = 4

// readParquet decodes a parquet file into rows after checking the footer schema.
func readParquet[T any](path, source string, required []string) ([]T, error) {
	columns, err := parquetColumns(path)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(source, columns, required); err != nil {
		return nil, err
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("parquet reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]T, num)
	if num == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("parquet read %s: %w", path, err)
	}
	return rows, nil
}

// parquetColumns lists top-level column names from the file footer
func parquetColumns(path string) ([]string, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("parquet footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	schema := pr.Footer.GetSchema()
	columns := make([]string, 0, len(schema))
	// schema[0]은 root
	for _, el := range schema[1:] {
		columns = append(columns, el.GetName())
	}
	return columns, nil
}

// writeParquet writes rows as a ZSTD-compressed parquet file
func writeParquet[T any](path string, rows []T) (err error) {
	fh, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer closeInto(&err, fh, path)

	pw, err := writer.NewParquetWriter(fh, new(T), parquetParallelism)
	if err != nil {
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return fmt.Errorf("parquet write %s row %d: %w", path, i+1, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet finalize %s: %w", path, err)
	}
	return nil
}
