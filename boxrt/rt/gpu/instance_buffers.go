package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

type instanceBuffer struct {
	label   string
	kind    core.ShapeKind
	buffer  *wgpu.Buffer
	slot    core.InstanceSlot
	staging []byte
}

// InstanceStats is a snapshot of one kind's buffer.
type InstanceStats struct {
	Kind     core.ShapeKind
	Count    uint32
	Capacity uint32
	Bytes    uint64
	Grows    int
}

// InstanceBufferManager keeps one vertex-rate instance buffer per shape
// kind. Buffers grow to the next power of two and never shrink.
type InstanceBufferManager struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	buffers [len(core.ShapeKinds)]*instanceBuffer
	set     core.InstanceSet
	log     core.Logger

	TotalAllocated uint64
}

func NewInstanceBufferManager(ctx *Context, initialCapacity uint32, log core.Logger) (*InstanceBufferManager, error) {
	m := &InstanceBufferManager{
		Device: ctx.Device,
		Queue:  ctx.Queue,
		log:    core.LoggerOrNop(log),
	}
	for _, kind := range core.ShapeKinds {
		b := &instanceBuffer{
			label: kind.String() + " Instances",
			kind:  kind,
			slot: core.InstanceSlot{
				Limit: uint32(ctx.Limits.MaxBufferSize / uint64(core.InstanceStride(kind))),
			},
		}
		m.buffers[kind] = b
		if _, err := b.slot.Reserve(max(initialCapacity, 1)); err != nil {
			m.Release()
			return nil, err
		}
		if err := m.allocate(b); err != nil {
			m.Release()
			return nil, err
		}
		b.slot.Count, b.slot.Grows = 0, 0
	}
	return m, nil
}

// allocate replaces b's buffer with one sized for the slot's capacity.
// Contents are not preserved; every frame rewrites all live records.
func (m *InstanceBufferManager) allocate(b *instanceBuffer) error {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	size := uint64(b.slot.Capacity) * uint64(core.InstanceStride(b.kind))
	buf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label,
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("allocate %s (%d bytes): %v: %w", b.label, size, err, core.ErrBufferGrowth)
	}
	b.buffer = buf
	m.TotalAllocated += size
	m.log.Debugf("gpu: %s capacity %d (%d bytes)", b.label, b.slot.Capacity, size)
	return nil
}

// Update partitions snap and uploads every record. recreated reports
// whether any buffer was reallocated this frame.
func (m *InstanceBufferManager) Update(snap *core.FrameSnapshot) (bool, error) {
	core.PartitionInstances(snap, &m.set)
	recreated := false
	for _, b := range m.buffers {
		count := uint32(m.set.Count(b.kind))
		grow, err := b.slot.Reserve(count)
		if err != nil {
			return recreated, fmt.Errorf("%s: %w", b.label, err)
		}
		if grow {
			if err := m.allocate(b); err != nil {
				return recreated, err
			}
			recreated = true
		}
		if count == 0 {
			continue
		}
		b.staging = m.set.Pack(b.kind, b.staging)
		if err := m.Queue.WriteBuffer(b.buffer, 0, b.staging); err != nil {
			return recreated, fmt.Errorf("upload %s: %v: %w", b.label, err, core.ErrDeviceLost)
		}
	}
	return recreated, nil
}

func (m *InstanceBufferManager) Buffer(kind core.ShapeKind) *wgpu.Buffer {
	return m.buffers[kind].buffer
}

func (m *InstanceBufferManager) Count(kind core.ShapeKind) uint32 {
	return m.buffers[kind].slot.Count
}

func (m *InstanceBufferManager) Capacity(kind core.ShapeKind) uint32 {
	return m.buffers[kind].slot.Capacity
}

// Set is the partition uploaded by the last Update.
func (m *InstanceBufferManager) Set() *core.InstanceSet { return &m.set }

func (m *InstanceBufferManager) Stats() []InstanceStats {
	out := make([]InstanceStats, 0, len(m.buffers))
	for _, b := range m.buffers {
		out = append(out, InstanceStats{
			Kind:     b.kind,
			Count:    b.slot.Count,
			Capacity: b.slot.Capacity,
			Bytes:    uint64(b.slot.Capacity) * uint64(core.InstanceStride(b.kind)),
			Grows:    b.slot.Grows,
		})
	}
	return out
}

func (m *InstanceBufferManager) Release() {
	for _, b := range m.buffers {
		if b != nil && b.buffer != nil {
			b.buffer.Release()
			b.buffer = nil
		}
	}
}
