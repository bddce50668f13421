package kenfrench

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/httputil"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// FactorsDataset is the published three-factor file
const FactorsDataset = "F-F_Research_Data_Factors"

const csvZipSuffix = "_CSV.zip"

// Client downloads datasets from the Ken French data library
// ⭐ SSOT: 레퍼런스 팩터 다운로드는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string // .../ken.french/ftp/
	libraryURL string // .../ken.french/data_library.html
}

// NewClient creates a new data library client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		libraryURL: strings.TrimSuffix(baseURL, "ftp/") + "data_library.html",
	}
}

// Download fetches <dataset>_CSV.zip and returns the first CSV inside it
func (c *Client) Download(ctx context.Context, dataset string) (string, error) {
	body, err := c.httpClient.GetBytes(ctx, c.baseURL+dataset+csvZipSuffix)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", dataset, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open %s archive: %w", dataset, err)
	}

	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%s archive has no CSV file", dataset)
}

// LoadTable downloads a dataset and returns its index-th table
func (c *Client) LoadTable(ctx context.Context, dataset string, index int) (*Table, error) {
	content, err := c.Download(ctx, dataset)
	if err != nil {
		return nil, err
	}

	tables := ParseSections(content)
	if index < 0 || index >= len(tables) {
		return nil, fmt.Errorf("%s: table %d out of range (%d tables)", dataset, index, len(tables))
	}

	c.logger.WithFields(map[string]interface{}{
		"dataset": dataset,
		"tables":  len(tables),
		"rows":    len(tables[index].Rows),
	}).Debug("Loaded data library table")
	return &tables[index], nil
}

// FetchReference returns the published monthly SMB/HML as decimals
func (c *Client) FetchReference(ctx context.Context) ([]contracts.ReferenceRecord, error) {
	table, err := c.LoadTable(ctx, FactorsDataset, 0)
	if err != nil {
		return nil, err
	}
	return ReferenceFromTable(table)
}

// ReferenceFromTable converts a percent-valued factors table to reference rows
func ReferenceFromTable(table *Table) ([]contracts.ReferenceRecord, error) {
	smb, hml := table.Column("SMB"), table.Column("HML")
	if smb < 0 {
		return nil, contracts.NewMissingColumn(contracts.DatasetReference, "SMB")
	}
	if hml < 0 {
		return nil, contracts.NewMissingColumn(contracts.DatasetReference, "HML")
	}

	records := make([]contracts.ReferenceRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, contracts.ReferenceRecord{
			Month: contracts.MonthOf(row.Date),
			SMB:   row.Values[smb] / 100,
			HML:   row.Values[hml] / 100,
		})
	}
	return records, nil
}

// ListDatasets scrapes the library page for downloadable CSV datasets
func (c *Client) ListDatasets(ctx context.Context) ([]string, error) {
	body, err := c.httpClient.GetBytes(ctx, c.libraryURL)
	if err != nil {
		return nil, fmt.Errorf("fetch data library page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse data library page: %w", err)
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if u, err := url.Parse(href); err == nil {
			href = u.Path
		}
		name := path.Base(href)
		if !strings.HasSuffix(name, csvZipSuffix) {
			return
		}
		seen[strings.TrimSuffix(name, csvZipSuffix)] = true
	})

	datasets := make([]string, 0, len(seen))
	for name := range seen {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)

	c.logger.WithFields(map[string]interface{}{
		"count": len(datasets),
	}).Debug("Listed data library datasets")
	return datasets, nil
}
