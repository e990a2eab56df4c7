package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgilbert/soundshelf/internal/catalog"
	"github.com/mgilbert/soundshelf/internal/playback"
)

type tickMsg time.Time

// pane selects which catalog view the release/playlist list shows.
type pane int

const (
	paneReleases pane = iota
	panePlaylists
)

type releaseItem catalog.ReleaseSummary

func (r releaseItem) Title() string {
	if r.Year > 0 {
		return fmt.Sprintf("%s (%d)", r.Title, r.Year)
	}
	return r.Title
}
func (r releaseItem) Description() string { return r.ArtistName }
func (r releaseItem) FilterValue() string { return r.Title + " " + r.ArtistName }

type playlistItem catalog.PlaylistSummary

func (p playlistItem) Title() string       { return p.Name }
func (p playlistItem) Description() string { return "playlist" }
func (p playlistItem) FilterValue() string { return p.Name }

type model struct {
	cat  *catalog.Catalog
	hyd  *catalog.Hydrator
	ctx  *playback.Context
	cmds *playback.CommandChannel

	pane      pane
	releases  list.Model
	playlists list.Model

	width, height int
	err           error
}

func newModel(cat *catalog.Catalog, ctx *playback.Context, cmds *playback.CommandChannel) (*model, error) {
	releaseRows, err := cat.ListReleases()
	if err != nil {
		return nil, err
	}
	releaseItems := make([]list.Item, len(releaseRows))
	for i, r := range releaseRows {
		releaseItems[i] = releaseItem(r)
	}

	playlistRows, err := cat.ListPlaylists()
	if err != nil {
		return nil, err
	}
	playlistItems := make([]list.Item, len(playlistRows))
	for i, p := range playlistRows {
		playlistItems[i] = playlistItem(p)
	}

	releases := list.New(releaseItems, list.NewDefaultDelegate(), 0, 0)
	releases.Title = "Releases"
	playlists := list.New(playlistItems, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "Playlists"

	return &model{
		cat:       cat,
		hyd:       catalog.NewHydrator(cat),
		ctx:       ctx,
		cmds:      cmds,
		releases:  releases,
		playlists: playlists,
	}, nil
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) activeList() *list.Model {
	if m.pane == panePlaylists {
		return &m.playlists
	}
	return &m.releases
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listHeight := m.height - playerBarHeight
		if listHeight < 0 {
			listHeight = 0
		}
		m.releases.SetSize(m.width, listHeight)
		m.playlists.SetSize(m.width, listHeight)
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		if m.activeList().FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.pane == paneReleases {
				m.pane = panePlaylists
			} else {
				m.pane = paneReleases
			}
			return m, nil
		case "enter":
			m.play()
			return m, nil
		case " ":
			m.cmds.Send(playback.Command{Kind: playback.CmdPlayPause})
			return m, nil
		case "+", "=":
			m.cmds.Send(playback.Command{Kind: playback.CmdChangeVolume, Volume: 0.05})
			return m, nil
		case "-":
			m.cmds.Send(playback.Command{Kind: playback.CmdChangeVolume, Volume: -0.05})
			return m, nil
		case "right", "l":
			m.cmds.Send(playback.Command{Kind: playback.CmdFastForward, Seconds: 10})
			return m, nil
		case "left", "h":
			m.cmds.Send(playback.Command{Kind: playback.CmdRewind, Seconds: 10})
			return m, nil
		}
	}

	var cmd tea.Cmd
	*m.activeList(), cmd = m.activeList().Update(msg)
	return m, cmd
}

// play hydrates the selected release or playlist into a queue.Item tree
// and posts it as a Play command, the same path any control surface uses.
func (m *model) play() {
	switch m.pane {
	case paneReleases:
		sel, ok := m.releases.SelectedItem().(releaseItem)
		if !ok {
			return
		}
		item, err := m.hyd.Release(sel.ID, nil)
		if err != nil {
			m.err = err
			return
		}
		m.cmds.Send(playback.Command{Kind: playback.CmdPlay, Item: item})
	case panePlaylists:
		sel, ok := m.playlists.SelectedItem().(playlistItem)
		if !ok {
			return
		}
		item, err := m.hyd.Playlist(sel.ID, nil)
		if err != nil {
			m.err = err
			return
		}
		m.cmds.Send(playback.Command{Kind: playback.CmdPlay, Item: item})
	}
}

const playerBarHeight = 3

func (m *model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.activeList().View(), m.renderPlayerBar())
}

func (m *model) renderPlayerBar() string {
	length, left := m.ctx.Length(), m.ctx.SamplesLeft()
	rate := m.ctx.SampleRate()
	status := "stopped"
	var pos, dur time.Duration
	if rate > 0 {
		pos = time.Duration((length-left)*int64(time.Second)) / time.Duration(rate)
		dur = time.Duration(length*int64(time.Second)) / time.Duration(rate)
		if left > 0 {
			status = "playing"
		}
	}
	track := filepath.Base(m.ctx.CurrentPath())
	if track == "." || track == "" {
		track = "(nothing playing)"
	}
	line := fmt.Sprintf("%s  [%s]  %s / %s  vol %.0f%%",
		track, status, fmtDuration(pos), fmtDuration(dur), m.ctx.Volume()*100)
	return playerBarStyle.Width(m.width - 2).Render(line)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
