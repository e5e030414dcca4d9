package model

// CacheMsgKind tags the variant carried by a CacheMsg.
type CacheMsgKind int

const (
	CacheGet CacheMsgKind = iota
	CachePut
	CacheReadFinished
	CacheWriteFinished
)

// CacheMsg is the message variant consumed by the cache manager.
type CacheMsg struct {
	Kind  CacheMsgKind
	Block Block
}

func GetMsg(b Block) CacheMsg           { return CacheMsg{Kind: CacheGet, Block: b} }
func PutMsg(b Block) CacheMsg           { return CacheMsg{Kind: CachePut, Block: b} }
func ReadFinishedMsg(b Block) CacheMsg  { return CacheMsg{Kind: CacheReadFinished, Block: b} }
func WriteFinishedMsg(b Block) CacheMsg { return CacheMsg{Kind: CacheWriteFinished, Block: b} }

// StepKind tags the migration sub-protocol step carried by a Step.
type StepKind int

const (
	MoveInit StepKind = iota
	MoveReadFinished
	MoveWriteFinished
)

// Step represents one transition of the block-migration state machine.
// Disk is the migration target for MoveInit/MoveReadFinished; it is
// unused (zero) for MoveWriteFinished.
type Step struct {
	Kind  StepKind
	Block Block
	Disk  DiskId
}

// StorageMsgKind tags the variant carried by a StorageMsg.
type StorageMsgKind int

const (
	StorageInit StorageMsgKind = iota
	StorageFinish
	StorageProcess
)

// StorageMsg is the message variant consumed by the storage stack.
type StorageMsg struct {
	Kind   StorageMsgKind
	Access Access // valid when Kind is StorageInit or StorageFinish
	Step   Step   // valid when Kind is StorageProcess
}

func InitMsg(a Access) StorageMsg   { return StorageMsg{Kind: StorageInit, Access: a} }
func FinishMsg(a Access) StorageMsg { return StorageMsg{Kind: StorageFinish, Access: a} }
func ProcessMsg(s Step) StorageMsg  { return StorageMsg{Kind: StorageProcess, Step: s} }

// PlacementMsgKind tags the variant carried by a PlacementMsg.
type PlacementMsgKind int

const (
	PlacementFetched PlacementMsgKind = iota
	PlacementWritten
	PlacementMigrate
)

// PlacementMsg is the message variant consumed by the placement policy.
type PlacementMsg struct {
	Kind  PlacementMsgKind
	Block Block // valid when Kind is PlacementFetched or PlacementWritten
}

func FetchedMsg(b Block) PlacementMsg { return PlacementMsg{Kind: PlacementFetched, Block: b} }
func WrittenMsg(b Block) PlacementMsg { return PlacementMsg{Kind: PlacementWritten, Block: b} }
func MigrateMsg() PlacementMsg        { return PlacementMsg{Kind: PlacementMigrate} }
