// Package calltarget provides the default call infrastructure for the bridge:
// call-target creation, boundary and inlined invocation, and sharing
// registration. It implements ports.CallInfrastructure and knows nothing
// about bridge units beyond ports.Root.
package calltarget
