package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/tubegrab/tubegrab/internal/utils"
)

type jobOutput struct {
	ID         int
	Name       string
	Status     string
	Message    string
	Downloaded uint64
	Total      uint64
	Err        error
	StartTime  time.Time
}

// Manager renders one status line per registered download, redrawn on a
// ticker, and a summary once the display stops.
type Manager struct {
	outputs  map[int]*jobOutput
	mutex    sync.RWMutex
	jobCount int
	numLines int
	doneCh   chan struct{}
	wg       sync.WaitGroup
	tick     time.Duration
}

func NewManager() *Manager {
	return &Manager{
		outputs: make(map[int]*jobOutput),
		doneCh:  make(chan struct{}),
		tick:    300 * time.Millisecond,
	}
}

func (m *Manager) Register(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobCount++
	m.outputs[m.jobCount] = &jobOutput{
		ID:        m.jobCount,
		Name:      name,
		Status:    "pending",
		StartTime: time.Now(),
	}
	return m.jobCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
	}
}

func (m *Manager) SetStatus(id int, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = status
	}
}

func (m *Manager) SetTotal(id int, total uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Total = total
	}
}

func (m *Manager) UpdateProgress(id int, downloaded uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Downloaded = downloaded
		info.Status = "downloading"
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = "success"
		info.Message = message
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = "error"
		info.Err = err
	}
}

func (m *Manager) StartDisplay() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.wg.Wait()
	m.printSummary()
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.numLines != 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	width := terminalWidth()
	ids := make([]int, 0, len(m.outputs))
	for id := range m.outputs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Println(truncate(m.renderLine(m.outputs[id]), width))
	}
	m.numLines = len(ids)
}

func (m *Manager) renderLine(info *jobOutput) string {
	switch info.Status {
	case "success":
		return successStyle.Render(fmt.Sprintf("%s %s: %s", styleSymbols["pass"], info.Name, info.Message))
	case "error":
		return errorStyle.Render(fmt.Sprintf("%s %s: %v", styleSymbols["fail"], info.Name, info.Err))
	case "downloading":
		elapsed := time.Since(info.StartTime).Seconds()
		line := fmt.Sprintf("%s %s: %s (%s)", styleSymbols["arrow"], info.Name,
			utils.FormatBytes(info.Downloaded), utils.FormatSpeed(info.Downloaded, elapsed))
		if info.Total > 0 {
			pct := float64(info.Downloaded) / float64(info.Total) * 100
			line = fmt.Sprintf("%s %s: %.1f%% of %s (%s)", styleSymbols["arrow"], info.Name,
				pct, utils.FormatBytes(info.Total), utils.FormatSpeed(info.Downloaded, elapsed))
		}
		return pendingStyle.Render(line)
	default:
		return detailStyle.Render(fmt.Sprintf("%s %s: %s", styleSymbols["pending"], info.Name, info.Message))
	}
}

func (m *Manager) printSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	failures := 0
	for _, info := range m.outputs {
		if info.Status == "error" {
			failures++
			PrintError(fmt.Sprintf("%s %s: %v", styleSymbols["bullet"], info.Name, info.Err))
		}
	}
	if failures == 0 {
		PrintSuccess(fmt.Sprintf("All %d download(s) completed", len(m.outputs)))
	} else {
		PrintWarning(fmt.Sprintf("%d of %d download(s) failed", failures, len(m.outputs)))
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

func truncate(s string, width int) string {
	if len(s) <= width || width < 4 {
		return s
	}
	return strings.TrimSpace(s[:width-3]) + "..."
}
