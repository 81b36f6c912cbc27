package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jroimartin/gocui"

	"altos/console"
	"altos/monitor"
	"altos/teletype"
)

// runScreen shows the board on a gocui screen: the serial terminal on
// top, then the board summary, monitor output and the command line.
// Tab moves the focus between the terminal and the command line.
func runScreen(g *gocui.Gui, mon *monitor.Monitor, term *teletype.Terminal) error {
	g.Cursor = true
	g.SetManagerFunc(layout(term))

	out := console.NewGui(g, "status")
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", gocui.KeyTab, gocui.ModNone, toggleFocus); err != nil {
		return err
	}
	if err := g.SetKeybinding("input", gocui.KeyEnter, gocui.ModNone, execLine(mon, out)); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go updateRegisters(g, mon, done)

	out.WriteConsole("altos monitor, type help for commands")
	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func execLine(mon *monitor.Monitor, out console.Console) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		line := strings.TrimSpace(v.Buffer())
		v.Clear()
		if err := v.SetCursor(0, 0); err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		if line == "quit" {
			return gocui.ErrQuit
		}
		out.WriteConsole(". " + line)
		res, err := mon.Exec(line)
		if err != nil {
			return out.WriteConsole(err.Error())
		}
		return out.WriteConsole(res)
	}
}

// updateRegisters refreshes the registers view once a second. gocui only
// allows view changes from its main loop, hence g.Update.
func updateRegisters(g *gocui.Gui, mon *monitor.Monitor, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			regs := mon.Registers()
			g.Update(func(g *gocui.Gui) error {
				v, err := g.View("registers")
				if err != nil {
					return err
				}
				v.Clear()
				fmt.Fprint(v, regs)
				return nil
			})
		case <-done:
			return
		}
	}
}

func layout(term *teletype.Terminal) func(*gocui.Gui) error {
	return func(g *gocui.Gui) error {
		maxX, maxY := g.Size()
		if v, err := g.SetView("console", 0, 0, maxX-1, maxY-18); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Console"
			v.Autoscroll = true
			v.Wrap = true
			v.Editable = true
			v.Editor = term.Editor()
		}
		if v, err := g.SetView("registers", 0, maxY-17, maxX-1, maxY-12); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Registers"
		}
		if v, err := g.SetView("status", 0, maxY-11, maxX-1, maxY-4); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Status"
			v.Autoscroll = true
		}
		if v, err := g.SetView("input", 0, maxY-3, maxX-1, maxY-1); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Command"
			v.Editable = true
			if _, err := g.SetCurrentView("input"); err != nil {
				return err
			}
		}
		return nil
	}
}

func toggleFocus(g *gocui.Gui, v *gocui.View) error {
	next := "console"
	if v != nil && v.Name() == "console" {
		next = "input"
	}
	_, err := g.SetCurrentView(next)
	return err
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
