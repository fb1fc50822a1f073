package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jroimartin/gocui"
)

const (
	viewRegisters = "registers"
	viewTrace     = "trace"
	viewCode      = "code"
	viewConsole   = "console"
	viewInput     = "input"

	maxConsoleLines = 500
)

var (
	currentLine = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorLine   = color.New(color.FgRed).SprintFunc()
)

// UI is a full-screen terminal front end for a Monitor
type UI struct {
	monitor *Monitor
	console []string
}

// NewUI creates the terminal front end
func NewUI(m *Monitor) *UI {
	return &UI{monitor: m}
}

// Run takes over the terminal until the user quits
func (ui *UI) Run() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	defer g.Close()

	g.Cursor = true
	g.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(g); err != nil {
		return err
	}

	ui.print(ui.monitor.status("ready")...)
	ui.print("type help for commands, F10 steps, F5 continues, Ctrl-C quits")

	if err := g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

func (ui *UI) bindKeys(g *gocui.Gui) error {
	bindings := []struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, quit},
		{"", gocui.KeyF10, ui.run("step")},
		{"", gocui.KeyF5, ui.run("continue")},
		{"", gocui.KeyF6, ui.run("frame")},
		{viewInput, gocui.KeyEnter, ui.submit},
	}
	for _, b := range bindings {
		if err := g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}

func (ui *UI) run(line string) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		return ui.execute(line)
	}
}

func (ui *UI) submit(g *gocui.Gui, v *gocui.View) error {
	line := strings.TrimSpace(v.Buffer())
	v.Clear()
	if err := v.SetCursor(0, 0); err != nil {
		return err
	}
	if line == "" {
		return nil
	}
	return ui.execute(line)
}

func (ui *UI) execute(line string) error {
	ui.print("> " + line)
	for _, out := range ui.monitor.Execute(line) {
		if strings.HasPrefix(out, "error:") {
			out = errorLine(out)
		}
		ui.print(out)
	}
	if ui.monitor.Quit() {
		return gocui.ErrQuit
	}
	return nil
}

func (ui *UI) print(lines ...string) {
	ui.console = append(ui.console, lines...)
	if over := len(ui.console) - maxConsoleLines; over > 0 {
		ui.console = ui.console[over:]
	}
}

// layout places the registers and code views side by side over the
// trace, with the console and the input line at the bottom
func (ui *UI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	mid := maxX / 2
	top := 6
	bottom := maxY - 12

	v, err := setView(g, viewRegisters, 0, 0, mid-1, top, "Registers")
	if err != nil {
		return err
	}
	v.Clear()
	b := ui.monitor.machine()
	for _, line := range Registers(b) {
		fmt.Fprintln(v, line)
	}

	v, err = setView(g, viewCode, mid, 0, maxX-1, bottom, "Code")
	if err != nil {
		return err
	}
	v.Clear()
	_, height := v.Size()
	for _, line := range Disassemble(b, b.CPU.PC, height) {
		if strings.HasPrefix(line, ">") {
			line = currentLine(line)
		}
		fmt.Fprintln(v, line)
	}

	v, err = setView(g, viewTrace, 0, top+1, mid-1, bottom, "Trace")
	if err != nil {
		return err
	}
	v.Clear()
	_, height = v.Size()
	history := ui.monitor.History()
	if len(history) > height {
		history = history[len(history)-height:]
	}
	for _, line := range history {
		fmt.Fprintln(v, line)
	}

	v, err = setView(g, viewConsole, 0, bottom+1, maxX-1, maxY-3, "Console")
	if err != nil {
		return err
	}
	v.Clear()
	_, height = v.Size()
	lines := ui.console
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for _, line := range lines {
		fmt.Fprintln(v, line)
	}

	v, err = g.SetView(viewInput, 0, maxY-2, maxX-1, maxY)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Editable = true
		v.Frame = false
		if _, err := g.SetCurrentView(viewInput); err != nil {
			return err
		}
	}
	return nil
}

func setView(g *gocui.Gui, name string, x0, y0, x1, y1 int, title string) (*gocui.View, error) {
	v, err := g.SetView(name, x0, y0, x1, y1)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return nil, err
		}
		v.Title = title
	}
	return v, nil
}
