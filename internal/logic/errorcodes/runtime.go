package errorcodes

// RuntimeError 运行时内置错误（非 Custom 的 InstructionError / TransactionError 变体）
type RuntimeError struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	DebugTip    string `json:"debugTip,omitempty"`
}

// instructionErrors 顺序即 bincode 变体序号，不可调整
var instructionErrors = []RuntimeError{
	{"GenericError", "Generic instruction error", "Runtime", ""},
	{"InvalidArgument", "Invalid program argument", "Input Validation", ""},
	{"InvalidInstructionData", "Invalid instruction data", "Instruction", "The instruction data does not match what the program expects; check the client encoding and IDL version."},
	{"InvalidAccountData", "Invalid account data for instruction", "Account Validation", "An account passed has the wrong layout or belongs to a different program."},
	{"AccountDataTooSmall", "Account data too small for instruction", "Account Validation", ""},
	{"InsufficientFunds", "Insufficient funds for instruction", "Balance", "An account lacks the lamports or tokens required."},
	{"IncorrectProgramId", "Incorrect program id for instruction", "Account Validation", "An account is owned by a different program, often SPL Token vs Token-2022."},
	{"MissingRequiredSignature", "Missing required signature for instruction", "Authorization", "An account that must sign did not sign the transaction."},
	{"AccountAlreadyInitialized", "Instruction requires an uninitialized account", "Account State", ""},
	{"UninitializedAccount", "Instruction requires an initialized account", "Account State", "Create or initialize the account first."},
	{"UnbalancedInstruction", "Sum of account balances before and after instruction do not match", "Runtime", ""},
	{"ModifiedProgramId", "Instruction illegally modified the program id of an account", "Runtime", ""},
	{"ExternalAccountLamportSpend", "Instruction spent from the balance of an account it does not own", "Runtime", ""},
	{"ExternalAccountDataModified", "Instruction modified data of an account it does not own", "Runtime", ""},
	{"ReadonlyLamportChange", "Instruction changed the balance of a read-only account", "Runtime", "Mark the account as writable."},
	{"ReadonlyDataModified", "Instruction modified data of a read-only account", "Runtime", "Mark the account as writable."},
	{"DuplicateAccountIndex", "An account was referenced more than once in a single instruction", "Instruction", ""},
	{"ExecutableModified", "Instruction changed executable bit of an account", "Runtime", ""},
	{"RentEpochModified", "Instruction modified rent epoch of an account", "Runtime", ""},
	{"NotEnoughAccountKeys", "Insufficient account keys for instruction", "Instruction", "Pass every account the instruction requires."},
	{"AccountDataSizeChanged", "Program other than the account's owner changed the size of the account data", "Runtime", ""},
	{"AccountNotExecutable", "Instruction expected an executable account", "Account Validation", ""},
	{"AccountBorrowFailed", "Instruction tries to borrow reference for an account which is already borrowed", "Runtime", ""},
	{"AccountBorrowOutstanding", "Instruction left account with an outstanding borrowed reference", "Runtime", ""},
	{"DuplicateAccountOutOfSync", "Instruction modifications of multiply-passed account differ", "Runtime", ""},
	{"Custom", "Custom program error", "Program", ""},
	{"InvalidError", "Program returned an invalid error code", "Program", ""},
	{"ExecutableDataModified", "Instruction changed executable accounts data", "Runtime", ""},
	{"ExecutableLamportChange", "Instruction changed the balance of an executable account", "Runtime", ""},
	{"ExecutableAccountNotRentExempt", "Executable accounts must be rent exempt", "Rent", ""},
	{"UnsupportedProgramId", "Unsupported program id", "Program", ""},
	{"CallDepth", "Cross-program invocation call depth too deep", "CPI", "Reduce nested CPI depth; the runtime limit is 4."},
	{"MissingAccount", "An account required by the instruction is missing", "Instruction", "A CPI referenced an account that was not passed to the outer instruction."},
	{"ReentrancyNotAllowed", "Cross-program invocation reentrancy not allowed for this instruction", "CPI", ""},
	{"MaxSeedLengthExceeded", "Length of the seed is too long for address generation", "PDA", ""},
	{"InvalidSeeds", "Provided seeds do not result in a valid address", "PDA", "Check the seeds and bump used for the PDA."},
	{"InvalidRealloc", "Failed to reallocate account data", "Account State", ""},
	{"ComputationalBudgetExceeded", "Computational budget exceeded", "Compute Budget", "Add a ComputeBudget SetComputeUnitLimit instruction with a higher limit."},
	{"PrivilegeEscalation", "Cross-program invocation with unauthorized signer or writable account", "CPI", "A CPI requested signer or writable privileges the caller does not hold."},
	{"ProgramEnvironmentSetupFailure", "Failed to create program execution environment", "Runtime", ""},
	{"ProgramFailedToComplete", "Program failed to complete", "Runtime", "The program panicked or exceeded a runtime limit; inspect the logs."},
	{"ProgramFailedToCompile", "Program failed to compile", "Runtime", ""},
	{"Immutable", "Account is immutable", "Account State", ""},
	{"IncorrectAuthority", "Incorrect authority provided", "Authorization", ""},
	{"BorshIoError", "Failed to serialize or deserialize account data", "Serialization", ""},
	{"AccountNotRentExempt", "An account does not have enough lamports to be rent-exempt", "Rent", "Fund the account to the rent-exempt minimum."},
	{"InvalidAccountOwner", "Invalid account owner", "Account Validation", ""},
	{"ArithmeticOverflow", "Program arithmetic overflowed", "Arithmetic", ""},
	{"UnsupportedSysvar", "Unsupported sysvar", "Runtime", ""},
	{"IllegalOwner", "Provided owner is not allowed", "Account Validation", ""},
	{"MaxAccountsDataAllocationsExceeded", "Accounts data allocations exceeded the maximum allowed per transaction", "Runtime", ""},
	{"MaxAccountsExceeded", "Max accounts exceeded", "Runtime", ""},
	{"MaxInstructionTraceLengthExceeded", "Max instruction trace length exceeded", "Runtime", ""},
	{"BuiltinProgramsMustConsumeComputeUnits", "Builtin programs must consume compute units", "Runtime", ""},
}

// transactionErrors 顺序即 bincode 变体序号，不可调整
var transactionErrors = []RuntimeError{
	{"AccountInUse", "An account is already being processed in another transaction in a way that does not support parallelism", "Scheduling", "Retry the transaction."},
	{"AccountLoadedTwice", "A pubkey appears twice in the transaction's account keys", "Transaction Format", ""},
	{"AccountNotFound", "Attempt to debit an account but found no record of a prior credit", "Balance", "The fee payer or a debited account does not exist on chain."},
	{"ProgramAccountNotFound", "Attempt to load a program that does not exist", "Program", "Check the program id and cluster."},
	{"InsufficientFundsForFee", "Insufficient funds for fee", "Fees", "Top up the fee payer with enough SOL for the fee and priority fee."},
	{"InvalidAccountForFee", "This account may not be used to pay transaction fees", "Fees", ""},
	{"AlreadyProcessed", "This transaction has already been processed", "Transaction Format", ""},
	{"BlockhashNotFound", "Blockhash not found", "Expiry", "The recent blockhash expired before the transaction landed; fetch a new blockhash and resend."},
	{"InstructionError", "Error processing an instruction", "Instruction", ""},
	{"CallChainTooDeep", "Loader call chain is too deep", "CPI", ""},
	{"MissingSignatureForFee", "Transaction requires a fee but has no signature present", "Transaction Format", ""},
	{"InvalidAccountIndex", "Transaction contains an invalid account reference", "Transaction Format", ""},
	{"SignatureFailure", "Transaction did not pass signature verification", "Authorization", ""},
	{"InvalidProgramForExecution", "This program may not be used for executing instructions", "Program", ""},
	{"SanitizeFailure", "Transaction failed to sanitize accounts offsets correctly", "Transaction Format", ""},
	{"ClusterMaintenance", "Transactions are currently disabled due to cluster maintenance", "Cluster", ""},
	{"AccountBorrowOutstanding", "Transaction processing left an account with an outstanding borrowed reference", "Runtime", ""},
	{"WouldExceedMaxBlockCostLimit", "Transaction would exceed max Block Cost Limit", "Scheduling", "Retry with a higher priority fee."},
	{"UnsupportedVersion", "Transaction version is unsupported", "Transaction Format", ""},
	{"InvalidWritableAccount", "Transaction loads a writable account that cannot be written", "Transaction Format", ""},
	{"WouldExceedMaxAccountCostLimit", "Transaction would exceed max account limit within the block", "Scheduling", "A hot account is saturated in this block; retry."},
	{"WouldExceedAccountDataBlockLimit", "Transaction would exceed account data limit within the block", "Scheduling", ""},
	{"TooManyAccountLocks", "Transaction locked too many accounts", "Transaction Format", ""},
	{"AddressLookupTableNotFound", "Transaction loads an address table account that doesn't exist", "Address Lookup Table", ""},
	{"InvalidAddressLookupTableOwner", "Transaction loads an address table account with an invalid owner", "Address Lookup Table", ""},
	{"InvalidAddressLookupTableData", "Transaction loads an address table account with invalid data", "Address Lookup Table", ""},
	{"InvalidAddressLookupTableIndex", "Transaction address table lookup uses an invalid index", "Address Lookup Table", ""},
	{"InvalidRentPayingAccount", "Transaction leaves an account with a lower balance than rent-exempt minimum", "Rent", ""},
	{"WouldExceedMaxVoteCostLimit", "Transaction would exceed max Vote Cost Limit", "Scheduling", ""},
	{"WouldExceedAccountDataTotalLimit", "Transaction would exceed total account data limit", "Scheduling", ""},
	{"DuplicateInstruction", "Transaction contains a duplicate instruction that is not allowed", "Transaction Format", ""},
	{"InsufficientFundsForRent", "Transaction results in an account with insufficient funds for rent", "Rent", "Fund the account up to the rent-exempt minimum."},
	{"MaxLoadedAccountsDataSizeExceeded", "Transaction exceeded max loaded accounts data size cap", "Compute Budget", ""},
	{"InvalidLoadedAccountsDataSizeLimit", "LoadedAccountsDataSizeLimit set for transaction must be greater than 0", "Compute Budget", ""},
	{"ResanitizationNeeded", "Sanitized transaction differed before/after feature activation", "Runtime", ""},
	{"ProgramExecutionTemporarilyRestricted", "Execution of the program referenced by this account is temporarily restricted", "Program", ""},
	{"UnbalancedTransaction", "Sum of account balances before and after transaction do not match", "Runtime", ""},
	{"ProgramCacheHitMaxLimit", "Program cache hit max limit", "Runtime", "Retry the transaction."},
}

var (
	instructionErrorByName = indexRuntimeErrors(instructionErrors)
	transactionErrorByName = indexRuntimeErrors(transactionErrors)
)

func indexRuntimeErrors(list []RuntimeError) map[string]RuntimeError {
	m := make(map[string]RuntimeError, len(list))
	for _, e := range list {
		m[e.Name] = e
	}
	return m
}

// InstructionErrorVariant 按 bincode 序号返回 InstructionError 变体名
func InstructionErrorVariant(index uint32) (string, bool) {
	if int(index) >= len(instructionErrors) {
		return "", false
	}
	return instructionErrors[index].Name, true
}

// TransactionErrorVariant 按 bincode 序号返回 TransactionError 变体名
func TransactionErrorVariant(index uint32) (string, bool) {
	if int(index) >= len(transactionErrors) {
		return "", false
	}
	return transactionErrors[index].Name, true
}

// LookupInstructionError 按变体名查内置指令错误
func LookupInstructionError(name string) (RuntimeError, bool) {
	e, ok := instructionErrorByName[name]
	return e, ok
}

// LookupTransactionError 按变体名查内置交易错误
func LookupTransactionError(name string) (RuntimeError, bool) {
	e, ok := transactionErrorByName[name]
	return e, ok
}
