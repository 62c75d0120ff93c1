package agent

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"bootprof/internal/model"
)

// Endpoint is the child side of the parent<->child control channel. It reads
// newline-delimited JSON commands and writes replies the same way. Lines
// that fail to decode, and messages with unknown types, are ignored so a
// newer parent cannot crash an older child.
type Endpoint struct {
	in      io.Reader
	collect func() model.ResultsPayload

	mu  sync.Mutex
	out *bufio.Writer
}

// NewEndpoint builds an endpoint reading commands from in and writing
// replies to out. collect is invoked on the first getResults request.
func NewEndpoint(in io.Reader, out io.Writer, collect func() model.ResultsPayload) *Endpoint {
	return &Endpoint{in: in, collect: collect, out: bufio.NewWriter(out)}
}

// Serve processes commands until the parent closes its end of the channel.
func (e *Endpoint) Serve() {
	scanner := bufio.NewScanner(e.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		var msg model.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case model.MsgGetResults:
			payload := e.collect()
			data, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			e.write(model.Message{Type: model.MsgResults, Data: data})
		}
	}
}

// SendReady reports that the application finished booting, carrying the boot
// duration as a [seconds, nanoseconds] pair. Frameworks embedding the agent
// call this once their server is listening.
func (e *Endpoint) SendReady(boot time.Duration) {
	sec := int64(boot / time.Second)
	nanos := int64(boot % time.Second)
	pair := [2]int64{sec, nanos}
	e.write(model.Message{Type: model.MsgReady, BootTime: &pair})
}

func (e *Endpoint) write(msg model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out.Write(data)
	e.out.WriteByte('\n')
	e.out.Flush()
}
