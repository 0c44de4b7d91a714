package term

func asUint32(v int32) uint32 {
	return uint32(v) //nolint:gosec // G115: intentional bit-pattern reinterpretation for the Num payload.
}

func asInt32(v uint32) int32 {
	return int32(v) //nolint:gosec // G115: intentional bit-pattern reinterpretation for the Num payload.
}
