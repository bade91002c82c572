package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is returned when a frame does not match any known grammar. It is
// never fatal: callers discard the frame and keep listening.
type ParseError struct {
	Frame  string
	Reason string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("unrecognized frame %q: %s", e.Frame, e.Reason)
}

// IsParse checks whether an error is a ParseError.
func IsParse(err error) bool {
	_, ok := err.(ParseError)
	return ok
}

func parseErr(data []byte, reason string) ParseError {
	return ParseError{Frame: string(data), Reason: reason}
}

// Decode parses a received frame into one of the Message kinds. The token
// count and the token types select the grammar:
//
//	1 token            Open                        Invite
//	2 tokens           id R | id Ok | id ACK       PollRequest | Commit | Ack
//	3 numeric tokens   id lat lon                  JoinRequest
//	5 numeric tokens   id lat lon temp humid       JoinRequest with telemetry
//	6 numeric tokens   id count tmin tmax hmin hmax  Settings
//
// The bare 3-number shape is the same for a join request and a telemetry
// reply; Decode resolves it as a join request, which is the only kind the
// generic listener cares about. The poll listener uses DecodeDataReply
// instead.
func Decode(data []byte) (Message, error) {
	tokens := strings.Fields(string(data))

	switch len(tokens) {
	case 1:
		if tokens[0] == inviteToken {
			return &Invite{}, nil
		}
		return nil, parseErr(data, "unknown keyword")

	case 2:
		id, err := parseID(tokens[0])
		if err != nil {
			return nil, parseErr(data, err.Error())
		}
		switch tokens[1] {
		case pollToken:
			return &PollRequest{ID: id}, nil
		case commitToken:
			return &Commit{ID: id}, nil
		case ackToken:
			return &Ack{ID: id}, nil
		}
		return nil, parseErr(data, "unknown keyword")

	case 3:
		id, fields, err := parseNumeric(tokens)
		if err != nil {
			return nil, parseErr(data, err.Error())
		}
		return &JoinRequest{
			ID:        id,
			Latitude:  fields[0],
			Longitude: fields[1],
		}, nil

	case 5:
		id, fields, err := parseNumeric(tokens)
		if err != nil {
			return nil, parseErr(data, err.Error())
		}
		return &JoinRequest{
			ID:           id,
			Latitude:     fields[0],
			Longitude:    fields[1],
			Temperature:  fields[2],
			Humidity:     fields[3],
			HasTelemetry: true,
		}, nil

	case 6:
		id, err := parseID(tokens[0])
		if err != nil {
			return nil, parseErr(data, err.Error())
		}
		count, err := strconv.Atoi(tokens[1])
		if err != nil {
			return nil, parseErr(data, "bad node count")
		}
		fields := make([]float64, 4)
		for i, tok := range tokens[2:] {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, parseErr(data, "bad numeric field")
			}
			fields[i] = f
		}
		return &Settings{
			ID:        id,
			NodeCount: count,
			TempMin:   fields[0],
			TempMax:   fields[1],
			HumidMin:  fields[2],
			HumidMax:  fields[3],
		}, nil
	}

	return nil, parseErr(data, "bad token count")
}

// DecodeDataReply parses a frame strictly as a telemetry reply: exactly an id
// followed by two numeric fields. It is used by the poll listener, which is
// the only context where the bare 3-number shape means a telemetry reply.
func DecodeDataReply(data []byte) (*DataReply, error) {
	tokens := strings.Fields(string(data))
	if len(tokens) != 3 {
		return nil, parseErr(data, "bad token count")
	}
	id, fields, err := parseNumeric(tokens)
	if err != nil {
		return nil, parseErr(data, err.Error())
	}
	return &DataReply{
		ID:          id,
		Temperature: fields[0],
		Humidity:    fields[1],
	}, nil
}

func parseID(tok string) (uint8, error) {
	id, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("bad node id")
	}
	if id == 0 {
		return 0, fmt.Errorf("node id 0 is reserved")
	}
	return uint8(id), nil
}

// parseNumeric parses an id followed by float fields.
func parseNumeric(tokens []string) (uint8, []float64, error) {
	id, err := parseID(tokens[0])
	if err != nil {
		return 0, nil, err
	}
	fields := make([]float64, len(tokens)-1)
	for i, tok := range tokens[1:] {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("bad numeric field")
		}
		fields[i] = f
	}
	return id, fields, nil
}
