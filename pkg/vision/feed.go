package vision

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const retryInterval = 500 * time.Millisecond

// Decode parses one JSON encoded observation.
func Decode(data []byte) (Observation, error) {
	var o Observation
	if err := json.Unmarshal(data, &o); err != nil {
		return o, errors.Wrap(err, "bad vision observation")
	}
	o.Pose = o.Pose.Wrapped()
	return o, nil
}

// LoopReadingSerial reads newline separated observations from the
// coprocessor's UART until ctx is done, reopening the port after errors.
func LoopReadingSerial(ctx context.Context, device string, baud int, q *Queue) {
	for ctx.Err() == nil {
		err := readSerial(ctx, device, baud, q)
		if ctx.Err() != nil {
			return
		}
		fmt.Println("Vision: serial feed stopped; will retry", err)
		sleep(ctx, retryInterval)
	}
}

func readSerial(ctx context.Context, device string, baud int, q *Queue) error {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return errors.Wrapf(err, "failed to open serial port %s", device)
	}
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	defer port.Close()
	fmt.Println("Vision: reading observations from", device)
	return ReadLines(ctx, port, q)
}

// ReadLines pushes one observation per line of r until r ends or ctx is done.
// Lines that do not decode are skipped.
func ReadLines(ctx context.Context, r io.Reader, q *Queue) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		o, err := Decode(line)
		if err != nil {
			fmt.Println("Vision:", err)
			continue
		}
		q.Push(o)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read vision feed")
	}
	return io.EOF
}

// LoopReadingWebsocket subscribes to observations published over a websocket
// until ctx is done, redialling after errors.  Each text message carries one
// observation.
func LoopReadingWebsocket(ctx context.Context, url string, q *Queue) {
	for ctx.Err() == nil {
		err := ReadWebsocket(ctx, url, q)
		if ctx.Err() != nil {
			return
		}
		fmt.Println("Vision: websocket feed stopped; will retry", err)
		sleep(ctx, retryInterval)
	}
}

// ReadWebsocket reads from one websocket connection until it fails.
func ReadWebsocket(ctx context.Context, url string, q *Queue) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s", url)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()
	fmt.Println("Vision: subscribed to", url)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return io.EOF
			}
			return errors.Wrap(err, "failed to read from websocket")
		}
		if msgType != websocket.TextMessage {
			continue
		}
		o, err := Decode(data)
		if err != nil {
			fmt.Println("Vision:", err)
			continue
		}
		q.Push(o)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
