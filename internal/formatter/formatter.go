// package formatter exports reading lists to various formats (CSV, Markdown, plain text)
// and renders books for terminal output.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// ParseFormat accepts csv, markdown (md) and txt (text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// ReadingList is a named list of books, i.e. the library or the wishlist.
type ReadingList struct {
	Name  string
	Books []models.Book
}

// Authors joins the authors of b for display.
func Authors(b models.Book) string {
	if len(b.VolumeInfo.Authors) == 0 {
		return b.FirstAuthor()
	}
	return strings.Join(b.VolumeInfo.Authors, ", ")
}

// ExportToCSV converts a reading list to CSV with columns: ID, Title, Authors, Published, Read Date, Tags, Notes
func ExportToCSV(list ReadingList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Authors", "Published", "Read Date", "Tags", "Notes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range list.Books {
		record := []string{
			b.ID,
			b.Title(),
			Authors(b),
			b.VolumeInfo.PublishedDate,
			b.ReadDate,
			strings.Join(b.Tags, "; "),
			b.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a reading list to Markdown, one numbered entry per book
// with its tags, read date and notes underneath.
func ExportToMarkdown(list ReadingList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)
	fmt.Fprintf(&buf, "**Books**: %d\n\n", len(list.Books))

	for i, b := range list.Books {
		fmt.Fprintf(&buf, "%d. **%s** by %s", i+1, b.Title(), Authors(b))
		if b.VolumeInfo.PublishedDate != "" {
			fmt.Fprintf(&buf, " (%s)", b.VolumeInfo.PublishedDate)
		}
		buf.WriteString("\n")

		if b.VolumeInfo.ImageLinks != nil && b.VolumeInfo.ImageLinks.Thumbnail != "" {
			fmt.Fprintf(&buf, "   ![Cover](%s)\n", b.VolumeInfo.ImageLinks.Thumbnail)
		}
		if b.ReadDate != "" {
			fmt.Fprintf(&buf, "   - Read: %s\n", b.ReadDate)
		}
		if len(b.Tags) > 0 {
			fmt.Fprintf(&buf, "   - Tags: %s\n", strings.Join(b.Tags, ", "))
		}
		if b.Notes != "" {
			fmt.Fprintf(&buf, "   - Notes: %s\n", strings.ReplaceAll(b.Notes, "\n", " "))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a reading list to plain text format
func ExportToText(list ReadingList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", list.Name)
	fmt.Fprintf(&buf, "Books: %d\n\n", len(list.Books))

	for i, b := range list.Books {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, BookLine(b))
	}

	return buf.Bytes(), nil
}

// Export renders list in the given format.
func Export(list ReadingList, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list)
	default:
		return ExportToText(list)
	}
}

// WriteExport writes list in the given format.
//
// Defaults to {list name}{ext} in the working directory; parent directories are created.
func WriteExport(list ReadingList, format Format, path string) (string, error) {
	if path == "" {
		path = strings.ToLower(list.Name) + format.Extension()
	}

	data, err := Export(list, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WriteCSVExport exports a reading list to CSV. Defaults to {name}.csv.
func WriteCSVExport(list ReadingList, path string) (string, error) {
	return WriteExport(list, FormatCSV, path)
}

// WriteMarkdownExport exports a reading list to Markdown. Defaults to {name}.md.
func WriteMarkdownExport(list ReadingList, path string) (string, error) {
	return WriteExport(list, FormatMarkdown, path)
}

// WriteTextExport exports a reading list to plain text. Defaults to {name}.txt.
func WriteTextExport(list ReadingList, path string) (string, error) {
	return WriteExport(list, FormatText, path)
}

// BookLine renders a one-line summary: "Title - Authors (published) [tags]".
func BookLine(b models.Book) string {
	var sb strings.Builder
	sb.WriteString(b.Title())
	sb.WriteString(" - ")
	sb.WriteString(Authors(b))
	if b.VolumeInfo.PublishedDate != "" {
		fmt.Fprintf(&sb, " (%s)", b.VolumeInfo.PublishedDate)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(b.Tags, ", "))
	}
	return sb.String()
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders books as a bordered terminal table with ID, Title, Authors, Published and Tags.
func Table(books []models.Book) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "Authors", "Published", "Tags").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, b := range books {
		t.Row(b.ID, b.Title(), Authors(b), b.VolumeInfo.PublishedDate, strings.Join(b.Tags, ", "))
	}
	return t.String()
}
