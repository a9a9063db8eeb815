package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

var (
	_ list.Item = categoryItem{}
	_ list.Item = channelItem{}
	_ list.Item = programItem{}
)

// categoryItem wraps [models.Category] to implement [list.Item].
type categoryItem struct {
	category *models.Category
}

func (i categoryItem) FilterValue() string { return i.category.Name }
func (i categoryItem) Title() string       { return i.category.Name }
func (i categoryItem) Description() string {
	return fmt.Sprintf("%s • category %s", i.category.Section, i.category.ExternalID)
}

// channelItem wraps [models.Channel] to implement [list.Item].
type channelItem struct {
	channel *models.Channel
}

func (i channelItem) FilterValue() string { return i.channel.Name }
func (i channelItem) Title() string       { return i.channel.Name }
func (i channelItem) Description() string {
	if i.channel.EpgID != "" {
		return fmt.Sprintf("stream %s • guide %s", i.channel.StreamID, i.channel.EpgID)
	}
	return fmt.Sprintf("stream %s", i.channel.StreamID)
}

// programItem wraps [models.EpgProgram] to implement [list.Item].
type programItem struct {
	program *models.EpgProgram
	airing  bool
}

func (i programItem) FilterValue() string { return i.program.Title }
func (i programItem) Title() string {
	if i.airing {
		return "▶ " + i.program.Title
	}
	return i.program.Title
}
func (i programItem) Description() string {
	start := time.Unix(i.program.StartTime, 0).Format("15:04")
	end := time.Unix(i.program.EndTime, 0).Format("15:04")
	if i.program.Description != "" {
		return fmt.Sprintf("%s–%s • %s", start, end, i.program.Description)
	}
	return fmt.Sprintf("%s–%s", start, end)
}
