// Package chat implements the per-request pipeline in front of the model:
// validation, input sanitizing, prompt formatting, and response
// postprocessing. Service wires these stages around a Generator.
package chat
