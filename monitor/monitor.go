package monitor

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"

	"altos/disk"
	"altos/hdc"
	"altos/system"
)

// ErrUnknownCommand is returned for anything not in the command table
var ErrUnknownCommand = errors.New("unknown command")

const historySize = 64

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

type command struct {
	usage string
	run   func(m *Monitor, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"help", (*Monitor).help},
		"reset":   {"reset [mmu]", (*Monitor).reset},
		"rd":      {"rd <space> <addr>", (*Monitor).rd},
		"wr":      {"wr <space> <addr> <val>", (*Monitor).wr},
		"peek":    {"peek <addr> [count]", (*Monitor).peek},
		"in":      {"in <port>", (*Monitor).in},
		"out":     {"out <port> <val>", (*Monitor).out},
		"inb":     {"inb <port>", (*Monitor).inb},
		"outb":    {"outb <port> <val>", (*Monitor).outb},
		"mmu":     {"mmu [page]", (*Monitor).mmu},
		"fault":   {"fault", (*Monitor).fault},
		"hd":      {"hd", (*Monitor).hd},
		"pic":     {"pic", (*Monitor).pic},
		"intr":    {"intr", (*Monitor).intr},
		"if":      {"if <0|1>", (*Monitor).setIF},
		"attach":  {"attach <file>", (*Monitor).attach},
		"state":   {"state", (*Monitor).state},
		"history": {"history", (*Monitor).history},
	}
}

// Monitor runs debugger commands against a board. Every access to the
// board goes through the monitor lock.
type Monitor struct {
	mu    sync.Mutex
	board system.Board
	geom  disk.Geometry
	img   *disk.Image
	hist  *History
	log   *log.Logger
}

// New returns a monitor for board. geom is used by attach.
func New(board system.Board, geom disk.Geometry, logger *log.Logger) *Monitor {
	return &Monitor{board: board, geom: geom, hist: NewHistory(historySize), log: logger}
}

// Exec parses and runs one command line
func (m *Monitor) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hist.Enqueue(line)
	return cmd.run(m, fields[1:])
}

// Step lets the board service its host side I/O
func (m *Monitor) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board.Step()
}

// Registers returns the board summary for the status view
func (m *Monitor) Registers() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board.Dump()
}

// Attach opens an existing disk image and connects it to the board
func (m *Monitor) Attach(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attachImage(path)
}

// Close releases the attached disk image
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.img == nil {
		return nil
	}
	err := m.img.Close()
	m.img = nil
	return err
}

func (m *Monitor) altos() (*system.Altos8600, error) {
	a, ok := m.board.(*system.Altos8600)
	if !ok {
		return nil, fmt.Errorf("not available on %s", m.board.Name())
	}
	return a, nil
}

func (m *Monitor) attachImage(path string) error {
	a, err := m.altos()
	if err != nil {
		return err
	}
	img, err := disk.Attach(path, m.geom)
	if err != nil {
		return err
	}
	if m.img != nil {
		if err := m.img.Close(); err != nil && m.log != nil {
			m.log.Printf("close %s: %v\n", m.img.Path(), err)
		}
	}
	m.img = img
	a.AttachDisk(img)
	return nil
}

func parseNumber(s string, bits int) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

func wantArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (m *Monitor) help(args []string) (string, error) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(commands[name].usage + "\n")
	}
	return b.String(), nil
}

// reset pulses the board reset line. "reset mmu" clears the page table
// instead, as at power on.
func (m *Monitor) reset(args []string) (string, error) {
	if len(args) > 0 && args[0] == "mmu" {
		a, err := m.altos()
		if err != nil {
			return "", err
		}
		a.MMU.Reset()
		return "page table cleared\n", nil
	}
	m.board.Reset()
	return m.board.Name() + " reset\n", nil
}

func (m *Monitor) rd(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if err := wantArgs(args, 2, commands["rd"].usage); err != nil {
		return "", err
	}
	space, err := system.ParseSpace(args[0])
	if err != nil {
		return "", err
	}
	addr, err := parseNumber(args[1], 20)
	if err != nil {
		return "", err
	}
	v := a.ReadWord(space, uint32(addr), 0xffff)
	return fmt.Sprintf("%s %05x: %04x\n", space, addr, v), nil
}

func (m *Monitor) wr(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if err := wantArgs(args, 3, commands["wr"].usage); err != nil {
		return "", err
	}
	space, err := system.ParseSpace(args[0])
	if err != nil {
		return "", err
	}
	addr, err := parseNumber(args[1], 20)
	if err != nil {
		return "", err
	}
	v, err := parseNumber(args[2], 16)
	if err != nil {
		return "", err
	}
	a.WriteWord(space, uint32(addr), uint16(v), 0xffff)
	return "", nil
}

func (m *Monitor) peek(args []string) (string, error) {
	if err := wantArgs(args, 1, commands["peek"].usage); err != nil {
		return "", err
	}
	addr, err := parseNumber(args[0], 32)
	if err != nil {
		return "", err
	}
	count := uint64(16)
	if len(args) > 1 {
		if count, err = parseNumber(args[1], 16); err != nil {
			return "", err
		}
	}
	var b strings.Builder
	for i := uint64(0); i < count; i++ {
		if i%16 == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%06x:", addr+i)
		}
		fmt.Fprintf(&b, " %02x", m.board.ReadByte(uint32(addr+i)))
	}
	b.WriteString("\n")
	return b.String(), nil
}

func (m *Monitor) in(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if err := wantArgs(args, 1, commands["in"].usage); err != nil {
		return "", err
	}
	port, err := parseNumber(args[0], 16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04x: %04x\n", port, a.ReadIO(uint16(port), 0xffff)), nil
}

func (m *Monitor) out(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if err := wantArgs(args, 2, commands["out"].usage); err != nil {
		return "", err
	}
	port, err := parseNumber(args[0], 16)
	if err != nil {
		return "", err
	}
	v, err := parseNumber(args[1], 16)
	if err != nil {
		return "", err
	}
	a.WriteIO(uint16(port), uint16(v), 0xffff)
	return "", nil
}

func (m *Monitor) inb(args []string) (string, error) {
	if err := wantArgs(args, 1, commands["inb"].usage); err != nil {
		return "", err
	}
	port, err := parseNumber(args[0], 16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04x: %02x\n", port, m.board.InByte(uint16(port))), nil
}

func (m *Monitor) outb(args []string) (string, error) {
	if err := wantArgs(args, 2, commands["outb"].usage); err != nil {
		return "", err
	}
	port, err := parseNumber(args[0], 16)
	if err != nil {
		return "", err
	}
	v, err := parseNumber(args[1], 8)
	if err != nil {
		return "", err
	}
	m.board.OutByte(uint16(port), uint8(v))
	return "", nil
}

func (m *Monitor) mmu(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return a.MMU.Dump(), nil
	}
	page, err := parseNumber(args[0], 8)
	if err != nil {
		return "", err
	}
	return a.MMU.DumpPage(int(page)) + "\n", nil
}

func (m *Monitor) fault(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	lo, hi := a.FaultAddress()
	return fmt.Sprintf("fault %04x address %04x %04x nmi pending %v\n",
		a.FaultRegister(), lo, hi, a.NMIPending()), nil
}

func (m *Monitor) hd(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	return a.HDC.Dump() + "\n", nil
}

func (m *Monitor) pic(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	return a.PIC1.Dump() + "\n" + a.PIC2.Dump() + "\n" + a.PIC3.Dump() + "\n", nil
}

func (m *Monitor) intr(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("vector %02x\n", a.Acknowledge()), nil
}

func (m *Monitor) setIF(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return "", err
	}
	if err := wantArgs(args, 1, commands["if"].usage); err != nil {
		return "", err
	}
	switch args[0] {
	case "0":
		a.SetIF(false)
	case "1":
		a.SetIF(true)
	default:
		return "", fmt.Errorf("usage: %s", commands["if"].usage)
	}
	return fmt.Sprintf("user %v\n", a.User()), nil
}

func (m *Monitor) attach(args []string) (string, error) {
	if err := wantArgs(args, 1, commands["attach"].usage); err != nil {
		return "", err
	}
	if err := m.attachImage(args[0]); err != nil {
		return "", err
	}
	if m.log != nil {
		m.log.Printf("attached %s\n", args[0])
	}
	return fmt.Sprintf("attached %s (%s)\n", args[0], m.geom), nil
}

// snapshot is what the state command dumps for the ACS8600
type snapshot struct {
	Mode          system.Mode
	User          bool
	FaultRegister uint16
	FaultAddress  [2]uint16
	NMIPending    bool
	Disk          hdc.State
}

func (m *Monitor) state(args []string) (string, error) {
	a, err := m.altos()
	if err != nil {
		return dumper.Sdump(strings.Split(strings.TrimSpace(m.board.Dump()), "\n")), nil
	}
	lo, hi := a.FaultAddress()
	return dumper.Sdump(snapshot{
		Mode:          a.Mode(),
		User:          a.User(),
		FaultRegister: a.FaultRegister(),
		FaultAddress:  [2]uint16{lo, hi},
		NMIPending:    a.NMIPending(),
		Disk:          a.HDC.State(),
	}), nil
}

func (m *Monitor) history(args []string) (string, error) {
	var b strings.Builder
	for i, line := range m.hist.Items() {
		fmt.Fprintf(&b, "%3d %s\n", i, line)
	}
	return b.String(), nil
}
