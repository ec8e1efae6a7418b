package consts

// knownProgramNames 没有独立错误码表、但需要在执行流中显示友好名称的程序。
// 已注册错误码表的程序名称以协议名为准，见 errorcodes.Registry.ProgramName。
var knownProgramNames = map[string]string{
	SystemProgramStr:          "System Program",
	ComputeBudgetProgramStr:   "Compute Budget",
	StakeProgramStr:           "Stake Program",
	VoteProgramStr:            "Vote Program",
	BPFLoaderUpgradeableStr:   "BPF Upgradeable Loader",
	AddressLookupTableStr:     "Address Lookup Table",
	Ed25519SigVerifyStr:       "Ed25519 SigVerify",
	Secp256k1SigVerifyStr:     "Secp256k1 SigVerify",
	TokenProgramStr:           "SPL Token",
	TokenProgram2022Str:       "Token-2022",
	AssociatedTokenProgramStr: "Associated Token Account",
	MemoProgramStr:            "Memo",
	MemoProgramV1Str:          "Memo (v1)",
	TokenMetadataProgramStr:   "Metaplex Token Metadata",
	JupiterV6ProgramStr:       "Jupiter Aggregator v6",
	OrcaWhirlpoolProgramStr:   "Orca Whirlpool",
	RaydiumV4ProgramStr:       "Raydium AMM v4",
	RaydiumCLMMProgramStr:     "Raydium CLMM",
	RaydiumCPMMProgramStr:     "Raydium CPMM",
	PumpFunProgramStr:         "Pump.fun",
	MeteoraDLMMProgramStr:     "Meteora DLMM",
}

// KnownProgramName 返回内置程序名称，未知时 ok=false
func KnownProgramName(programID string) (name string, ok bool) {
	name, ok = knownProgramNames[programID]
	return
}
