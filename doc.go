// Package bufferlayout describes binary data with composable layouts that
// decode bytes into Go values and encode Go values back into bytes.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	bufferlayout/        Module overview
//	├── layout/          Layout descriptors: integers, floats, strings, blobs,
//	│                    sequences, structures, bit structures and unions
//	├── errors/          Structured error types with phase, kind and label path
//	├── witlayout/       Compiles WIT types into packed layouts
//	├── memory/          Runs layouts against wazero linear memory
//	├── schema/          Loads named layouts from YAML
//	├── render/          Tree, YAML and CBOR output for decoded values
//	└── cmd/layoutctl/   Command-line decoder, encoder and TUI inspector
//
// # Quick Start
//
// Compose a layout and round trip a value:
//
//	msg := layout.Must(layout.NewStructure([]layout.Layout{
//	    layout.U8("kind"),
//	    layout.U32("amount"),
//	    layout.NewCString("memo"),
//	}, ""))
//
//	buf := make([]byte, 16)
//	n, err := msg.Encode(map[string]any{"kind": 2, "amount": 500, "memo": "hi"}, buf, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := msg.Decode(buf, 0)
//	rec := v.(*layout.Record)
//	amount, _ := rec.Uint("amount") // 500
//
// # Thread Safety
//
// Layouts are safe for concurrent use once composition is complete. Adding
// union variants or bit fields while other goroutines encode or decode with
// the same layout is not.
package bufferlayout
