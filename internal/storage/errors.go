package storage

import (
	"fmt"

	"github.com/tiersim/blocksim/internal/model"
)

// InvalidBlockError indicates an access referenced a block with no
// home device. A simulator-internal invariant violation, not a
// recoverable condition.
type InvalidBlockError struct {
	Block model.Block
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block: %d has no home device", e.Block)
}

// InvalidDeviceError indicates a block's recorded home device does not
// exist in the stack. Also an internal invariant violation.
type InvalidDeviceError struct {
	Disk model.DiskId
}

func (e *InvalidDeviceError) Error() string {
	return fmt.Sprintf("invalid device: disk %d is not configured", e.Disk)
}

// BlockIsBusyError indicates a migration was requested for a block
// that already has one in flight. Recoverable in principle, but the
// placement-policy contract forbids overlapping moves for the same
// block, so in practice this always signals a policy bug and the run
// aborts.
type BlockIsBusyError struct {
	Block model.Block
}

func (e *BlockIsBusyError) Error() string {
	return fmt.Sprintf("block %d is already on hold for migration", e.Block)
}
