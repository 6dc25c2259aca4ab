package agentsim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/visorctl/internal/logging"
	"github.com/muurk/visorctl/internal/protocol"
)

// commandRecord is one captured command in the JSON Lines capture file.
type commandRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	CommandNum     int             `json:"command_num"`
	Kind           string          `json:"kind"`
	CorrelationKey string          `json:"correlation_key"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Raw            string          `json:"raw"`
}

// capture appends received commands to a JSON Lines file for protocol
// analysis. A nil capture records nothing.
type capture struct {
	mu         sync.Mutex
	filename   string
	commandNum int
}

func newCapture(dir string) (*capture, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access capture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("capture path is not a directory: %s", dir)
	}

	filename := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl",
		time.Now().Format("20060102-150405")))

	return &capture{filename: filename}, nil
}

// record appends one command to the capture file.
func (c *capture) record(cmd protocol.Command, raw []byte) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.commandNum++
	rec := commandRecord{
		Timestamp:      time.Now(),
		CommandNum:     c.commandNum,
		Kind:           string(cmd.Kind),
		CorrelationKey: cmd.CorrelationKey,
		Payload:        cmd.Payload,
		Raw:            string(raw),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal command record", zap.Error(err))
		return
	}

	f, err := os.OpenFile(c.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", c.filename),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write capture file",
			zap.String("filename", c.filename),
			zap.Error(err),
		)
	}
}
