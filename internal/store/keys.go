package store

// Key layout. One logical user record is spread over three keys so that id
// allocation never contends with document write-back in Badger's conflict
// detection:
//
//	user:<id>  JSON userRecord (email, timestamps)
//	doc:<id>   JSON documentRecord (revision + serialized tree)
//	seq:<id>   8-byte big-endian next node id
const (
	userPrefix     = "user:"
	documentPrefix = "doc:"
	sequencePrefix = "seq:"
)

// buildKey concatenates prefix and id into a fresh slice. Badger keeps key
// slices until commit, so keys are never pooled.
func buildKey(prefix, id string) []byte {
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

func userKey(id string) []byte     { return buildKey(userPrefix, id) }
func documentKey(id string) []byte { return buildKey(documentPrefix, id) }
func sequenceKey(id string) []byte { return buildKey(sequencePrefix, id) }
