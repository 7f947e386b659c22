package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
)

// CommandRecord is the wire form of gpiocmd.Record.
type CommandRecord struct {
	DeviceID  string   `protobuf:"bytes,1,opt,name=device_id,json=deviceId,proto3" json:"device_id,omitempty"`
	Args      []string `protobuf:"bytes,2,rep,name=args,proto3" json:"args,omitempty"`
	Command   string   `protobuf:"bytes,3,opt,name=command,proto3" json:"command,omitempty"`
	Register  uint32   `protobuf:"varint,4,opt,name=register,proto3" json:"register,omitempty"`
	Mask      uint32   `protobuf:"varint,5,opt,name=mask,proto3" json:"mask,omitempty"`
	Resolved  bool     `protobuf:"varint,6,opt,name=resolved,proto3" json:"resolved,omitempty"`
	Reply     string   `protobuf:"bytes,7,opt,name=reply,proto3" json:"reply,omitempty"`
	Failed    bool     `protobuf:"varint,8,opt,name=failed,proto3" json:"failed,omitempty"`
	Timestamp int64    `protobuf:"varint,9,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *CommandRecord) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandRecord) Reset() { *m = CommandRecord{} }

// String implements proto.Message.
func (m *CommandRecord) String() string { return proto.CompactTextString(m) }

// NewCommandRecord converts a Record observed on device id at time ts.
func NewCommandRecord(id string, rec gpiocmd.Record, ts time.Time) *CommandRecord {
	m := &CommandRecord{
		DeviceID:  id,
		Args:      rec.Args,
		Command:   rec.Command,
		Resolved:  rec.Resolved,
		Reply:     rec.Reply,
		Failed:    rec.Err != nil,
		Timestamp: ts.UnixNano(),
	}
	if rec.Resolved {
		m.Register, m.Mask = uint32(rec.Spec.Reg), uint32(rec.Spec.Mask)
	}
	return m
}

// Time returns Timestamp as time.Time.
func (m *CommandRecord) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode encodes the record to bytes.
func (m *CommandRecord) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeCommandRecord decodes bytes into a CommandRecord.
func DecodeCommandRecord(data []byte) (*CommandRecord, error) {
	var m CommandRecord
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Meta describes a device.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Registers   string            `json:"registers,omitempty"`
	Commands    []string          `json:"commands,omitempty"`
}
