package hostops

import "github.com/reglet-dev/hostbridge/bridge"

// Operation names used by Bundle.
const (
	OpReadMember   = "readMember"
	OpWriteMember  = "writeMember"
	OpHasMember    = "hasMember"
	OpMembers      = "members"
	OpInvokeMember = "invokeMember"
	OpExecute      = "execute"
	OpReadElement  = "readElement"
	OpArraySize    = "arraySize"
	OpReadKey      = "readKey"
)

// Bundle returns every reflective operation, keyed by operation name.
//
//	registry, err := bridge.NewRegistry(infra,
//	    bridge.WithBundle("hostops.Object", hostops.Bundle()),
//	)
func Bundle() bridge.Bundle {
	return bridge.NewBundle(map[string]bridge.Operation{
		OpReadMember:   bridge.OperationFunc(ReadMember),
		OpWriteMember:  bridge.OperationFunc(WriteMember),
		OpHasMember:    bridge.OperationFunc(HasMember),
		OpMembers:      bridge.OperationFunc(Members),
		OpInvokeMember: bridge.OperationFunc(InvokeMember),
		OpExecute:      bridge.OperationFunc(Execute),
		OpReadElement:  bridge.OperationFunc(ReadElement),
		OpArraySize:    bridge.OperationFunc(ArraySize),
		OpReadKey:      bridge.OperationFunc(ReadKey),
	})
}
