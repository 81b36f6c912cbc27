package rom

// Sets lists the known BIOS dumps per machine, first entry is the default
var Sets = map[string][]Set{
	"altos8600": {
		{
			Name: "bios", Description: "ACS8600 boot ROM 1.5", Size: 0x2000,
			Files: []File{
				{Name: "11753_1.5_lo.bin", Offset: 0, Length: 0x1000, Skip: true,
					CRC: 0xdfa7bf0e, SHA1: "6628fd7c579423b51d2642aeaa7fc0405a989252"},
				{Name: "11753_1.5_hi.bin", Offset: 1, Length: 0x1000, Skip: true,
					CRC: 0x9b5e812c, SHA1: "c2ef24859edd48d2096db47e16855c9bc01dae75"},
			},
		},
	},
	"68ksbc": {
		{
			Name: "t68k", Description: "68k SBC monitor", Size: 0x3000,
			Files: []File{
				{Name: "t68k.bin", Offset: 0, Length: 0x2f78,
					CRC: 0x20a8d0d0, SHA1: "544fd8bd8ed017115388c8b0f7a7a59a32253e43"},
			},
		},
	},
	"mccpm": {
		{
			Name: "v36", Description: "V3.6", Size: 0x1000, Fill: 0xff,
			Files: []File{
				{Name: "mon36.j15", Offset: 0, Length: 0x1000,
					CRC: 0x9c441537, SHA1: "f95bad52d9392b8fc9d9b8779b7b861672a0022b"},
			},
		},
		{
			Name: "v34", Description: "V3.4", Size: 0x1000, Fill: 0xff,
			Files: []File{
				{Name: "monhemc.bin", Offset: 0, Length: 0x1000,
					CRC: 0xcae7b56e, SHA1: "1f40be9491a595e6705099a452743cc0d49bfce8"},
			},
		},
		{
			Name: "v34a", Description: "V3.4 (alt)", Size: 0x1000, Fill: 0xff,
			Files: []File{
				{Name: "mc01mon.bin", Offset: 0, Length: 0x0d00,
					CRC: 0xd1c89043, SHA1: "f52a0ed3793dde0de74596be7339233b6a1770af"},
			},
		},
	},
}
