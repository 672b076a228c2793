// Package vfnet define as mensagens do protocolo servidor↔cliente,
// serializadas à mão sobre o formato de arame do protobuf.
package vfnet

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// MessageType discrimina o payload de um Envelope.
type MessageType uint32

const (
	TypeInvalid MessageType = iota
	TypeObjectSpawn
	TypeObjectDespawn
	TypeChunkData
	TypeObjectTransform
	TypeWorldStatus
	TypeSpawnRequest
	TypeAbsorbRequest
)

// Envelope embrulha toda mensagem no arame: o tipo e o payload serializado.
type Envelope struct {
	Type    MessageType
	Payload []byte
}

func (m *Envelope) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Type))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Payload)
	return b
}

func (m *Envelope) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Type = MessageType(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	if m.Type == TypeInvalid {
		return fmt.Errorf("envelope sem tipo")
	}
	return nil
}

// ---------- helpers de campo ----------

func appendFloat32(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendFloat64(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// appendVec3 codifica três floats em um campo de bytes empacotado.
func appendVec3(b []byte, num protowire.Number, v [3]float32) []byte {
	var p []byte
	for _, c := range v {
		p = protowire.AppendFixed32(p, math.Float32bits(c))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, p)
}

func appendQuat(b []byte, num protowire.Number, v [4]float32) []byte {
	var p []byte
	for _, c := range v {
		p = protowire.AppendFixed32(p, math.Float32bits(c))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, p)
}

func consumeFloat32(data []byte) (float32, int, error) {
	v, n := protowire.ConsumeFixed32(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float32frombits(v), n, nil
}

func consumeFloat64(data []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func consumeVec3(data []byte) ([3]float32, int, error) {
	var out [3]float32
	p, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return out, 0, protowire.ParseError(n)
	}
	if len(p) != 12 {
		return out, 0, fmt.Errorf("vec3 com %d bytes", len(p))
	}
	for i := range out {
		v, m := protowire.ConsumeFixed32(p)
		if m < 0 {
			return out, 0, protowire.ParseError(m)
		}
		out[i] = math.Float32frombits(v)
		p = p[m:]
	}
	return out, n, nil
}

func consumeQuat(data []byte) ([4]float32, int, error) {
	var out [4]float32
	p, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return out, 0, protowire.ParseError(n)
	}
	if len(p) != 16 {
		return out, 0, fmt.Errorf("quat com %d bytes", len(p))
	}
	for i := range out {
		v, m := protowire.ConsumeFixed32(p)
		if m < 0 {
			return out, 0, protowire.ParseError(m)
		}
		out[i] = math.Float32frombits(v)
		p = p[m:]
	}
	return out, n, nil
}

// skip descarta um campo desconhecido, preservando compatibilidade.
func skip(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

// ---------- mensagens servidor → cliente ----------

// ObjectSpawnMessage anuncia um objeto novo com seu snapshot GOB completo e
// o transform inicial.
type ObjectSpawnMessage struct {
	ObjectID uint32
	Snapshot []byte // voxel.ObjectSnapshot em GOB
	Position [3]float32
	Rotation [4]float32 // quaternion WXYZ
	Scale    float32
}

func (m *ObjectSpawnMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectID))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Snapshot)
	b = appendVec3(b, 3, m.Position)
	b = appendQuat(b, 4, m.Rotation)
	b = appendFloat32(b, 5, m.Scale)
	return b
}

func (m *ObjectSpawnMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ObjectID = uint32(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Snapshot = append([]byte(nil), v...)
			data = data[n:]
		case 3:
			v, n, err := consumeVec3(data)
			if err != nil {
				return err
			}
			m.Position = v
			data = data[n:]
		case 4:
			v, n, err := consumeQuat(data)
			if err != nil {
				return err
			}
			m.Rotation = v
			data = data[n:]
		case 5:
			v, n, err := consumeFloat32(data)
			if err != nil {
				return err
			}
			m.Scale = v
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// ObjectDespawnMessage retira um objeto do mundo do cliente.
type ObjectDespawnMessage struct {
	ObjectID uint32
}

func (m *ObjectDespawnMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectID))
	return b
}

func (m *ObjectDespawnMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ObjectID = uint32(v)
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// ChunkDataMessage carrega um chunk mutado de um objeto já conhecido.
type ChunkDataMessage struct {
	ObjectID uint32
	ChunkX   int32
	ChunkY   int32
	ChunkZ   int32
	MTime    int64
	Data     []byte // voxels do chunk em GOB
}

func (m *ChunkDataMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectID))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(m.ChunkX)))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(m.ChunkY)))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(m.ChunkZ)))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MTime))
	b = protowire.AppendTag(b, 6, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Data)
	return b
}

func (m *ChunkDataMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 5:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 1 {
				m.ObjectID = uint32(v)
			} else {
				m.MTime = int64(v)
			}
			data = data[n:]
		case 2, 3, 4:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c := int32(protowire.DecodeZigZag(v))
			switch num {
			case 2:
				m.ChunkX = c
			case 3:
				m.ChunkY = c
			case 4:
				m.ChunkZ = c
			}
			data = data[n:]
		case 6:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Data = append([]byte(nil), v...)
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// ObjectTransformMessage atualiza pose e velocidades de um objeto por tick.
type ObjectTransformMessage struct {
	ObjectID        uint32
	Position        [3]float32
	Rotation        [4]float32
	Scale           float32
	LinearVelocity  [3]float32
	AngularVelocity [3]float32
}

func (m *ObjectTransformMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectID))
	b = appendVec3(b, 2, m.Position)
	b = appendQuat(b, 3, m.Rotation)
	b = appendFloat32(b, 4, m.Scale)
	b = appendVec3(b, 5, m.LinearVelocity)
	b = appendVec3(b, 6, m.AngularVelocity)
	return b
}

func (m *ObjectTransformMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ObjectID = uint32(v)
			data = data[n:]
		case 2, 5, 6:
			v, n, err := consumeVec3(data)
			if err != nil {
				return err
			}
			switch num {
			case 2:
				m.Position = v
			case 5:
				m.LinearVelocity = v
			case 6:
				m.AngularVelocity = v
			}
			data = data[n:]
		case 3:
			v, n, err := consumeQuat(data)
			if err != nil {
				return err
			}
			m.Rotation = v
			data = data[n:]
		case 4:
			v, n, err := consumeFloat32(data)
			if err != nil {
				return err
			}
			m.Scale = v
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// AbsorbedTypeStatus acumula as remoções de um tipo de voxel desde o início
// do mundo.
type AbsorbedTypeStatus struct {
	VoxelType uint32
	Count     uint64
	Volume    float64
}

func (s *AbsorbedTypeStatus) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.VoxelType))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, s.Count)
	b = appendFloat64(b, 3, s.Volume)
	return b
}

func (s *AbsorbedTypeStatus) unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 1 {
				s.VoxelType = uint32(v)
			} else {
				s.Count = v
			}
			data = data[n:]
		case 3:
			v, n, err := consumeFloat64(data)
			if err != nil {
				return err
			}
			s.Volume = v
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// WorldStatusMessage resume o mundo para HUD e diagnóstico.
type WorldStatusMessage struct {
	Tick        uint64
	ObjectCount uint32
	Absorbed    []AbsorbedTypeStatus
}

func (m *WorldStatusMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Tick)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectCount))
	for i := range m.Absorbed {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Absorbed[i].marshal())
	}
	return b
}

func (m *WorldStatusMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1, 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 1 {
				m.Tick = v
			} else {
				m.ObjectCount = uint32(v)
			}
			data = data[n:]
		case 3:
			sub, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			var s AbsorbedTypeStatus
			if err := s.unmarshal(sub); err != nil {
				return err
			}
			m.Absorbed = append(m.Absorbed, s)
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// ---------- mensagens cliente → servidor ----------

// SpawnRequestMessage pede ao servidor um objeto novo gerado da receita.
type SpawnRequestMessage struct {
	Seed     uint32
	Recipe   string
	Position [3]float32
}

func (m *SpawnRequestMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Seed))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, m.Recipe)
	b = appendVec3(b, 3, m.Position)
	return b
}

func (m *SpawnRequestMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Seed = uint32(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Recipe = v
			data = data[n:]
		case 3:
			v, n, err := consumeVec3(data)
			if err != nil {
				return err
			}
			m.Position = v
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// AbsorbRequestMessage pede um passo de absorção esférica em um objeto, no
// frame local dele.
type AbsorbRequestMessage struct {
	ObjectID uint32
	Center   [3]float32
	Radius   float32
	Rate     float32
}

func (m *AbsorbRequestMessage) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ObjectID))
	b = appendVec3(b, 2, m.Center)
	b = appendFloat32(b, 3, m.Radius)
	b = appendFloat32(b, 4, m.Rate)
	return b
}

func (m *AbsorbRequestMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ObjectID = uint32(v)
			data = data[n:]
		case 2:
			v, n, err := consumeVec3(data)
			if err != nil {
				return err
			}
			m.Center = v
			data = data[n:]
		case 3, 4:
			v, n, err := consumeFloat32(data)
			if err != nil {
				return err
			}
			if num == 3 {
				m.Radius = v
			} else {
				m.Rate = v
			}
			data = data[n:]
		default:
			n, err := skip(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// WrapMessage embrulha um payload já serializado em um Envelope no arame.
func WrapMessage(t MessageType, payload []byte) []byte {
	e := Envelope{Type: t, Payload: payload}
	return e.Marshal()
}
