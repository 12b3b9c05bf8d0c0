package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Config wires the tray icon into the application.
type Config struct {
	Title   string
	Tooltip string

	// OnCapture fires when the user picks "Capture region" from the menu.
	OnCapture func()
	// OnExit fires when the user picks "Quit".
	OnExit func()
}

// Tray is the single system tray icon. Only one instance may run per process.
type Tray struct {
	cfg Config
}

var (
	stateMu     sync.Mutex
	trayReady   bool
	aboutExtra  string
	aboutHotkey string
	mAbout      *systray.MenuItem
)

// New prepares a tray icon. Call Run from the main goroutine.
func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		cfg.Title = "Screen Chat"
	}
	return &Tray{cfg: cfg}, nil
}

// Run starts the tray event loop. Blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the tray icon.
func (t *Tray) Destroy() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture region", "Select a screen region and send it to the model")
	systray.AddSeparator()
	about := systray.AddMenuItem(aboutText(), "")
	about.Disable()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	stateMu.Lock()
	trayReady = true
	mAbout = about
	stateMu.Unlock()

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Printf("tray: capture requested")
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	stateMu.Lock()
	trayReady = false
	mAbout = nil
	stateMu.Unlock()
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

// UpdateTooltip changes the hover text, e.g. while a reply is pending.
// No-op before the tray is ready.
func UpdateTooltip(tooltip string) {
	stateMu.Lock()
	ready := trayReady
	stateMu.Unlock()
	if !ready {
		return
	}
	systray.SetTooltip(tooltip)
}

// SetAboutHotkey records the active hotkey for the About menu entry.
func SetAboutHotkey(combo string) {
	stateMu.Lock()
	aboutHotkey = combo
	item := mAbout
	stateMu.Unlock()
	refreshAbout(item)
}

// SetAboutExtra appends a status line, e.g. the resident TCP port.
func SetAboutExtra(extra string) {
	stateMu.Lock()
	aboutExtra = extra
	item := mAbout
	stateMu.Unlock()
	refreshAbout(item)
}

func refreshAbout(item *systray.MenuItem) {
	if item == nil {
		return
	}
	item.SetTitle(aboutText())
}

func aboutText() string {
	stateMu.Lock()
	defer stateMu.Unlock()
	text := "Screen Chat"
	if aboutHotkey != "" {
		text = fmt.Sprintf("%s - %s", text, aboutHotkey)
	}
	if aboutExtra != "" {
		text = fmt.Sprintf("%s (%s)", text, aboutExtra)
	}
	return text
}
