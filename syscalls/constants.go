package syscalls

// systemCallGasLimit is the gas stipend every EIP-4788/7002 system call is
// given, matching the constant go-ethereum's own state processor uses for
// ProcessBeaconBlockRoot and ProcessWithdrawalQueue.
const systemCallGasLimit = 30_000_000

// withdrawalRequestFrameSize is the length of one EIP-7002 withdrawal
// request record returned by the withdrawal queue contract:
// source address (20) + validator pubkey (48) + amount, big-endian (8).
const withdrawalRequestFrameSize = 20 + 48 + 8
