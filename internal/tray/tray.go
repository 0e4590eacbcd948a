// Package tray provides the system tray control surface: pause, mute,
// clearing and reading out the sentence, plus a compact view of the
// recognition state.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/speller"
)

// Controls is the part of speller.Controller driven from the menu.
type Controls interface {
	TogglePause() bool
	ToggleMute() bool
	ClearWord()
	ClearSentence()
	SpeakSentence() bool
}

// Tray represents the system tray application. It implements
// speller.Display.
type Tray struct {
	controls   Controls
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex
	last       speller.Snapshot

	// Menu items stored for later updates
	menuPause    *systray.MenuItem
	menuMute     *systray.MenuItem
	menuGesture  *systray.MenuItem
	menuWord     *systray.MenuItem
	menuSentence *systray.MenuItem
}

// New creates a new Tray. Menu commands do nothing until Bind is called.
func New() *Tray {
	return &Tray{
		last: speller.Snapshot{
			Gesture:  "None",
			Word:     speller.EmptyMarker,
			Sentence: speller.EmptyMarker,
		},
	}
}

// Bind sets the controls driven by the menu.
func (t *Tray) Bind(c Controls) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.controls = c
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra sign language speller")

	t.mu.Lock()
	t.menuGesture = systray.AddMenuItem("", "Last recognized gesture")
	t.menuGesture.Disable()
	t.menuWord = systray.AddMenuItem("", "Word being spelled")
	t.menuWord.Disable()
	t.menuSentence = systray.AddMenuItem("", "Sentence so far")
	t.menuSentence.Disable()
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem("", "Pause or resume recognition")
	t.menuMute = systray.AddMenuItem("", "Mute or unmute speech")
	menuClearWord := systray.AddMenuItem("Clear Word", "Discard the current word")
	menuClearSentence := systray.AddMenuItem("Clear Sentence", "Discard the sentence")
	menuSpeak := systray.AddMenuItem("Speak Sentence", "Read the sentence aloud")
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Display...", "Open the live display in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	t.render(t.last)
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.control(func(c Controls) { c.TogglePause() })
			case <-t.menuMute.ClickedCh:
				t.control(func(c Controls) { c.ToggleMute() })
			case <-menuClearWord.ClickedCh:
				t.control(Controls.ClearWord)
			case <-menuClearSentence.ClickedCh:
				t.control(Controls.ClearSentence)
			case <-menuSpeak.ClickedCh:
				t.control(func(c Controls) { c.SpeakSentence() })
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// control runs fn against the bound controls without holding t.mu, since
// the controls call back into Show.
func (t *Tray) control(fn func(Controls)) {
	t.mu.RLock()
	c := t.controls
	t.mu.RUnlock()

	if c != nil {
		fn(c)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Show updates the menu from s.
func (t *Tray) Show(s speller.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = s
	if t.menuGesture != nil {
		t.render(s)
	}
}

// Last returns the most recently shown snapshot.
func (t *Tray) Last() speller.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// render writes the labels of s into the menu. Caller holds t.mu.
func (t *Tray) render(s speller.Snapshot) {
	l := labelsFor(s)
	t.menuGesture.SetTitle(l.gesture)
	t.menuWord.SetTitle(l.word)
	t.menuSentence.SetTitle(l.sentence)
	t.menuPause.SetTitle(l.pause)
	t.menuMute.SetTitle(l.mute)
	systray.SetTitle(l.title)
}

// labels are the menu texts for one snapshot.
type labels struct {
	title    string
	gesture  string
	word     string
	sentence string
	pause    string
	mute     string
}

// maxSentence is the longest sentence shown in the menu.
const maxSentence = 40

func labelsFor(s speller.Snapshot) labels {
	l := labels{
		title:    "Mudra",
		gesture:  "Gesture: " + s.Gesture,
		word:     "Word: " + s.Word,
		sentence: "Sentence: " + ellipsize(s.Sentence, maxSentence),
		pause:    "❚❚ Pause",
		mute:     "🔇 Mute",
	}
	if s.Paused {
		l.title = "Mudra (paused)"
		l.pause = "▶ Resume"
	}
	if s.Muted {
		l.mute = "🔊 Unmute"
	}
	return l
}

// ellipsize keeps the last n runes of s.
func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
