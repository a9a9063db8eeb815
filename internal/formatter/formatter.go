// package formatter provides functions to export the mirrored catalog to playback and spreadsheet formats (M3U, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

// ExportToM3U renders channels as an extended M3U playlist. Group titles
// come from the category names map; channels in unknown categories render
// without a group. The stream URLs are emitted verbatim, they are the
// playback contract.
func ExportToM3U(channels []*models.Channel, categoryNames map[int64]string) []byte {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	for _, channel := range channels {
		buf.WriteString("#EXTINF:-1")
		if channel.EpgID != "" {
			buf.WriteString(fmt.Sprintf(" tvg-id=%q", channel.EpgID))
		}
		if channel.Logo != "" {
			buf.WriteString(fmt.Sprintf(" tvg-logo=%q", channel.Logo))
		}
		if group := categoryNames[channel.CategoryID]; group != "" {
			buf.WriteString(fmt.Sprintf(" group-title=%q", group))
		}
		buf.WriteString(fmt.Sprintf(",%s\n", channel.Name))
		buf.WriteString(channel.StreamURL + "\n")
	}

	return buf.Bytes()
}

// ExportChannelsToCSV converts channels to CSV with columns: StreamID, Name, Category, EpgID, Logo, StreamURL
func ExportChannelsToCSV(channels []*models.Channel, categoryNames map[int64]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"StreamID", "Name", "Category", "EpgID", "Logo", "StreamURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, channel := range channels {
		record := []string{
			channel.StreamID,
			channel.Name,
			categoryNames[channel.CategoryID],
			channel.EpgID,
			channel.Logo,
			channel.StreamURL,
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

// ExportGuideToCSV converts a joined channel/guide view to CSV with columns:
// Channel, Title, Start, End, Description. Times render as RFC 3339 in UTC.
func ExportGuideToCSV(joined []*models.ChannelWithPrograms) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Channel", "Title", "Start", "End", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range joined {
		for _, program := range entry.Programs {
			record := []string{
				entry.Channel.Name,
				program.Title,
				time.Unix(program.StartTime, 0).UTC().Format(time.RFC3339),
				time.Unix(program.EndTime, 0).UTC().Format(time.RFC3339),
				program.Description,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteM3UExport writes channels to an M3U file.
//
// Defaults to channels_{epoch}.m3u as the filename.
func WriteM3UExport(channels []*models.Channel, categoryNames map[int64]string, filepath string) (string, error) {
	if filepath == "" {
		filepath = "channels_" + strconv.FormatInt(time.Now().Unix(), 10) + ".m3u"
	}

	if err := os.WriteFile(filepath, ExportToM3U(channels, categoryNames), 0644); err != nil {
		return "", fmt.Errorf("failed to write M3U file: %w", err)
	}

	return filepath, nil
}

// WriteChannelsCSVExport writes the channel table to a CSV file.
//
// Defaults to channels_{epoch}.csv as the filename.
func WriteChannelsCSVExport(channels []*models.Channel, categoryNames map[int64]string, filepath string) (string, error) {
	if filepath == "" {
		filepath = "channels_" + strconv.FormatInt(time.Now().Unix(), 10) + ".csv"
	}

	data, err := ExportChannelsToCSV(channels, categoryNames)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// WriteGuideCSVExport writes a joined guide view to a CSV file.
//
// Defaults to guide_{epoch}.csv as the filename.
func WriteGuideCSVExport(joined []*models.ChannelWithPrograms, filepath string) (string, error) {
	if filepath == "" {
		filepath = "guide_" + strconv.FormatInt(time.Now().Unix(), 10) + ".csv"
	}

	data, err := ExportGuideToCSV(joined)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}
