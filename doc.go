// Package jpeg implements the structural front end of a JPEG decoder:
// the marker lexer, segment parsers, Huffman table builder, and the
// driver state machine that sequences them. It stops at the boundary of
// entropy-coded data; inverse DCT, upsampling, and color conversion are
// out of scope.
package jpeg
