package websocket

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

// Destinations understood by the broker
const (
	PresenceTopic      = "/topic/public.presence"
	PrivateQueue       = "/user/queue/private"
	ErrorQueue         = "/user/queue/errors"
	PrivateMessageDest = "/app/chat.privateMessage"
)

// Subprotocols offered during the WebSocket upgrade, preferred first.
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

var supportedVersions = []string{"1.2", "1.1", "1.0"}

const serverName = "student-api"

func subscribable(destination string) bool {
	switch destination {
	case PresenceTopic, PrivateQueue, ErrorQueue:
		return true
	}
	return false
}

// decodeFrames parses every frame in one WebSocket message. Heart-beat
// newlines between frames are skipped.
func decodeFrames(data []byte) ([]*frame.Frame, error) {
	r := frame.NewReader(bytes.NewReader(data))
	var frames []*frame.Frame
	for {
		f, err := r.Read()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
}

func encodeFrame(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// negotiateVersion picks the highest version both sides accept. A client
// that sends no accept-version speaks 1.0.
func negotiateVersion(acceptVersion string) (string, bool) {
	if strings.TrimSpace(acceptVersion) == "" {
		return "1.0", true
	}
	offered := map[string]bool{}
	for _, v := range strings.Split(acceptVersion, ",") {
		offered[strings.TrimSpace(v)] = true
	}
	for _, v := range supportedVersions {
		if offered[v] {
			return v, true
		}
	}
	return "", false
}

// authorizationHeader reads the Authorization native header in either case.
func authorizationHeader(f *frame.Frame) string {
	if v, ok := f.Header.Contains("Authorization"); ok {
		return v
	}
	return f.Header.Get("authorization")
}

func connectedFrame(version, username string) *frame.Frame {
	return frame.New(frame.CONNECTED,
		frame.Version, version,
		frame.HeartBeat, "0,0",
		frame.Server, serverName,
		"user-name", username,
	)
}

func messageFrame(destination, subscriptionID, messageID string, body []byte) *frame.Frame {
	f := frame.New(frame.MESSAGE,
		frame.Destination, destination,
		frame.Subscription, subscriptionID,
		frame.MessageId, messageID,
		frame.ContentType, "application/json",
		frame.ContentLength, strconv.Itoa(len(body)),
	)
	f.Body = body
	return f
}

func receiptFrame(receiptID string) *frame.Frame {
	return frame.New(frame.RECEIPT, frame.ReceiptId, receiptID)
}

func errorFrame(message string) *frame.Frame {
	return frame.New(frame.ERROR, frame.Message, message)
}
