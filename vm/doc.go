// Package vm implements the runtime object model shared by compiled code.
//
// This package contains:
//   - the tagged Value word and its immediate kinds
//   - the Header every heap object starts with
//   - base strings and boxed floats
//   - builders for static constants and the ConstantPool
//   - the Heap used for dynamic allocation
package vm
