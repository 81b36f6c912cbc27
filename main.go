package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"altos/console"
	"altos/disk"
	"altos/logger"
	"altos/monitor"
	"altos/rom"
	"altos/serial"
	"altos/system"
	"altos/teletype"

	"github.com/jroimartin/gocui"
)

// how often the host side of the serial ports is serviced
const stepInterval = 10 * time.Millisecond

var (
	machine = flag.String("machine", "altos8600", "board: altos8600, 68ksbc or mccpm")
	bios    = flag.String("bios", "", "ROM set name, the first set of the machine if empty")
	romdir  = flag.String("romdir", "roms", "directory holding the ROM files")
	hdd     = flag.String("hdd", "", "hard disk image (altos8600)")
	chs     = flag.String("chs", disk.Default.String(), "hard disk geometry as cylinders,heads,sectors")
	sioa    = flag.String("sioa", "null", "host port for serial channel A: null, term, serial:<dev>[@baud], tty:<path>")
	siob    = flag.String("siob", "null", "host port for serial channel B")
	logfile = flag.String("log", "", "log file, stdout if empty")
	gui     = flag.Bool("gui", false, "run the gocui screen instead of the line console")
	debug   = flag.Bool("debug", false, "log every hard disk controller command")
)

func main() {
	flag.Parse()

	var l *log.Logger
	switch {
	case *logfile != "":
		l = logger.New(*logfile)
	case *gui:
		l = logger.Discard()
	default:
		l = logger.New("")
	}

	geom, err := disk.ParseGeometry(*chs)
	if err != nil {
		log.Fatal(err)
	}

	set, err := rom.Find(*machine, *bios)
	if err != nil {
		log.Fatal(err)
	}
	region, err := rom.Load(*romdir, set)
	if errors.Is(err, rom.ErrChecksum) {
		l.Printf("warning: %v", err)
	} else if err != nil {
		log.Fatal(err)
	}

	var g *gocui.Gui
	var term *teletype.Terminal
	if *gui {
		if g, err = gocui.NewGui(gocui.OutputNormal); err != nil {
			log.Fatalf("couldn't create gui: %v", err)
		}
		defer g.Close()
		term = teletype.New(g, "console")
	}

	ports, err := openPorts([]string{*sioa, *siob}, term)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range ports {
		defer p.Close()
	}

	board, err := newBoard(*machine, region, ports, l)
	if err != nil {
		log.Fatal(err)
	}
	board.Reset()
	l.Printf("%s: ROM set %s loaded from %s", board.Name(), set.Name, *romdir)

	mon := monitor.New(board, geom, l)
	defer mon.Close()
	if *hdd != "" {
		if err := mon.Attach(*hdd); err != nil {
			log.Fatal(err)
		}
	}

	stop := make(chan struct{})
	go stepLoop(mon, stop)
	defer close(stop)

	if *gui {
		if err := runScreen(g, mon, term); err != nil {
			log.Fatal(err)
		}
		return
	}
	runLine(mon, console.NewSimple(os.Stdout), os.Stdin)
}

// openPorts opens one host port per serial channel. "term" is the
// terminal view of the gocui screen and serves one channel only.
func openPorts(specs []string, term *teletype.Terminal) ([]io.ReadWriteCloser, error) {
	var ports []io.ReadWriteCloser
	fail := func(err error) ([]io.ReadWriteCloser, error) {
		for _, p := range ports {
			if p != term {
				p.Close()
			}
		}
		return nil, err
	}
	termUsed := false
	for _, spec := range specs {
		if spec != "term" {
			p, err := serial.Open(spec)
			if err != nil {
				return fail(err)
			}
			ports = append(ports, p)
			continue
		}
		switch {
		case term == nil:
			return fail(errors.New("port term needs -gui"))
		case termUsed:
			return fail(errors.New("port term is already attached to another channel"))
		}
		termUsed = true
		ports = append(ports, term)
	}
	return ports, nil
}

// newBoard builds the machine and connects its serial ports
func newBoard(name string, region []byte, ports []io.ReadWriteCloser, l *log.Logger) (system.Board, error) {
	switch name {
	case "altos8600":
		b := system.NewAltos8600(system.Config{Log: l})
		b.HDC.Debug = *debug
		if err := b.LoadBIOS(region); err != nil {
			return nil, err
		}
		b.SIO.Channel(0).Attach(ports[0])
		b.SIO.Channel(1).Attach(ports[1])
		return b, nil
	case "68ksbc":
		b := system.NewC68ksbc(nil)
		if err := b.LoadROM(region); err != nil {
			return nil, err
		}
		b.ACIA.Attach(ports[0])
		return b, nil
	case "mccpm":
		b := system.NewMCCPM(nil, nil)
		if err := b.LoadROM(region); err != nil {
			return nil, err
		}
		b.SIO.Channel(0).Attach(ports[0])
		b.SIO.Channel(1).Attach(ports[1])
		return b, nil
	}
	return nil, fmt.Errorf("unknown machine %q", name)
}

func stepLoop(mon *monitor.Monitor, stop <-chan struct{}) {
	ticker := time.NewTicker(stepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mon.Step()
		case <-stop:
			return
		}
	}
}

// runLine reads commands from in until EOF or "quit"
func runLine(mon *monitor.Monitor, c console.Console, in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Print(". ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" {
			return
		}
		out, err := mon.Exec(line)
		if err != nil {
			c.WriteConsole(err.Error())
		} else {
			c.WriteConsole(out)
		}
		fmt.Print(". ")
	}
}
