package consts

// Base58 程序地址常量（可读性高，适合配置、日志与静态错误码表引用）
const (
	// 原生程序
	SystemProgramStr        = "11111111111111111111111111111111"
	ComputeBudgetProgramStr = "ComputeBudget111111111111111111111111111111"
	StakeProgramStr         = "Stake11111111111111111111111111111111111111"
	VoteProgramStr          = "Vote111111111111111111111111111111111111111"
	BPFLoaderUpgradeableStr = "BPFLoaderUpgradeab1e11111111111111111111111"
	AddressLookupTableStr   = "AddressLookupTab1e1111111111111111111111111"
	Ed25519SigVerifyStr     = "Ed25519SigVerify111111111111111111111111111"
	Secp256k1SigVerifyStr   = "KeccakSecp256k11111111111111111111111111111"

	// SPL
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MemoProgramStr            = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
	MemoProgramV1Str          = "Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo"

	// Metaplex
	TokenMetadataProgramStr = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

	// 聚合器
	JupiterV6ProgramStr = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"

	// DEX: Orca
	OrcaWhirlpoolProgramStr = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

	// DEX: Raydium
	RaydiumV4ProgramStr   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMMProgramStr = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	RaydiumCPMMProgramStr = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

	// DEX: PumpFun
	PumpFunProgramStr = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

	// DEX: Meteora
	MeteoraDLMMProgramStr = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"

	// FrameworkProgramWildcard 框架级协议（Anchor）不绑定具体程序地址
	FrameworkProgramWildcard = "*"
)
