package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/repositories"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CategoryListView ViewState = iota
	ChannelListView
	GuideView
	SyncView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	section models.Section

	playlists *repositories.PlaylistRepository
	catalog   *repositories.CatalogRepository
	epg       *repositories.EpgRepository
	engine    *tasks.CatalogEngine

	width  int
	height int

	categoryList     list.Model
	channelList      list.Model
	programList      list.Model
	selectedCategory *models.Category
	selectedChannel  *models.Channel

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	syncResult   *tasks.SyncResult
	err          error

	help help.Model
	keys keyMap
}

type categoriesLoadedMsg struct {
	categories []*models.Category
	err        error
}

type channelsLoadedMsg struct {
	channels []*models.Channel
	err      error
}

type guideLoadedMsg struct {
	programs []*models.EpgProgram
	current  *models.EpgProgram
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(
	ctx context.Context,
	section models.Section,
	playlists *repositories.PlaylistRepository,
	catalog *repositories.CatalogRepository,
	epg *repositories.EpgRepository,
	engine *tasks.CatalogEngine,
) *Model {
	m := &Model{
		ctx:       ctx,
		view:      CategoryListView,
		section:   section,
		playlists: playlists,
		catalog:   catalog,
		epg:       epg,
		engine:    engine,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.categoryList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.channelList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.programList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	return m
}

// Init initializes the TUI by loading the synced categories.
func (m *Model) Init() tea.Cmd {
	return m.loadCategories()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.categoryList, &m.channelList, &m.programList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CategoryListView:
			return m.handleCategoryListKeys(msg)
		case ChannelListView:
			return m.handleChannelListKeys(msg)
		case GuideView:
			return m.handleGuideKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		}

	case categoriesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.categories))
		for i, category := range msg.categories {
			items[i] = categoryItem{category: category}
		}
		m.categoryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.categoryList.Title = fmt.Sprintf("%s Categories", m.section)
		m.categoryList.SetSize(m.width-4, m.height-8)
		return m, nil

	case channelsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = CategoryListView
			return m, nil
		}
		items := make([]list.Item, len(msg.channels))
		for i, channel := range msg.channels {
			items[i] = channelItem{channel: channel}
		}
		m.channelList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.channelList.Title = fmt.Sprintf("Channels in '%s'", m.selectedCategory.Name)
		m.channelList.SetSize(m.width-4, m.height-8)
		m.view = ChannelListView
		return m, nil

	case guideLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ChannelListView
			return m, nil
		}
		items := make([]list.Item, len(msg.programs))
		for i, program := range msg.programs {
			airing := msg.current != nil && msg.current.ID == program.ID
			items[i] = programItem{program: program, airing: airing}
		}
		m.programList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.programList.Title = fmt.Sprintf("Guide for '%s'", m.selectedChannel.Name)
		m.programList.SetSize(m.width-4, m.height-8)
		m.view = GuideView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.syncResult = msg.result
		m.err = msg.err
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != SyncView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CategoryListView:
		return m.renderCategoryList()
	case ChannelListView:
		return m.renderChannelList()
	case GuideView:
		return m.renderGuide()
	case SyncView:
		return m.renderSync()
	default:
		return ""
	}
}

func (m *Model) handleCategoryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = SyncView
		m.syncResult = nil
		m.err = nil
		return m, m.startSync()
	case "enter":
		selected := m.categoryList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(categoryItem); ok {
				m.selectedCategory = item.category
				return m, m.loadChannels(item.category.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.categoryList, cmd = m.categoryList.Update(msg)
	return m, cmd
}

func (m *Model) handleChannelListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CategoryListView
		return m, nil
	case "enter":
		selected := m.channelList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(channelItem); ok {
				m.selectedChannel = item.channel
				return m, m.loadGuide(item.channel.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.channelList, cmd = m.channelList.Update(msg)
	return m, cmd
}

func (m *Model) handleGuideKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ChannelListView
		return m, nil
	}

	var cmd tea.Cmd
	m.programList, cmd = m.programList.Update(msg)
	return m, cmd
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.syncResult != nil || m.err != nil {
			m.view = CategoryListView
			m.err = nil
			return m, m.loadCategories()
		}
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CategoryListView:
		m.categoryList, cmd = m.categoryList.Update(msg)
	case ChannelListView:
		m.channelList, cmd = m.channelList.Update(msg)
	case GuideView:
		m.programList, cmd = m.programList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadCategories() tea.Cmd {
	return func() tea.Msg {
		stored, err := m.playlists.List()
		if err != nil {
			return categoriesLoadedMsg{err: err}
		}

		var categories []*models.Category
		for _, playlist := range stored {
			listed, err := m.catalog.CategoriesBySection(playlist.ID, m.section)
			if err != nil {
				return categoriesLoadedMsg{err: err}
			}
			categories = append(categories, listed...)
		}
		return categoriesLoadedMsg{categories: categories}
	}
}

func (m *Model) loadChannels(categoryID int64) tea.Cmd {
	return func() tea.Msg {
		channels, err := m.catalog.ChannelsByCategory(categoryID)
		return channelsLoadedMsg{channels: channels, err: err}
	}
}

func (m *Model) loadGuide(channelID int64) tea.Cmd {
	return func() tea.Msg {
		now := time.Now().Unix()
		programs, err := m.epg.UpcomingPrograms(channelID, now, 0)
		if err != nil {
			return guideLoadedMsg{err: err}
		}
		current, err := m.epg.CurrentProgram(channelID, now)
		if err != nil {
			// a channel with no program airing right now is not an error
			current = nil
		}
		return guideLoadedMsg{programs: programs, current: current}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.SyncSection(m.ctx, m.section, progressChan)
		m.syncResult = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.syncResult, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{result: m.syncResult, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderCategoryList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.sync, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.categoryList.View(), helpView)
}

func (m *Model) renderChannelList() string {
	guideKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "guide"),
	)
	helpKeys := []key.Binding{guideKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.channelList.View(), helpView)
}

func (m *Model) renderGuide() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.programList.View(), helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing %s Catalog", m.section))

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			title,
			styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress esc to go back, q to quit", m.err)))
	}

	if m.syncResult != nil {
		summary := fmt.Sprintf(
			"\nCategories: %d (%d failed)\nRecords upserted: %d",
			m.syncResult.CategoriesTotal,
			m.syncResult.CategoriesFailed,
			m.syncResult.RecordsUpserted,
		)
		var warn string
		if m.syncResult.CategoriesFailed > 0 {
			warn = "\n\n" + styles.warn.Render("Some categories were skipped:")
			for _, failure := range m.syncResult.Failures {
				warn += fmt.Sprintf("\n  • %s: %v", failure.ExternalID, failure.Err)
			}
		}
		done := styles.ok.Render("✓ Sync Complete")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n%s%s%s\n\n%s", title, done, summary, warn, helpView)
	}

	var phase string
	switch m.progress.Phase {
	case tasks.FetchCategories:
		phase = "Fetching categories..."
	case tasks.FetchStreams:
		phase = fmt.Sprintf("Fetching streams (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.UpsertBatch:
		phase = "Writing batch..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}
