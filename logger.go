/*
	RegionTiles, renders block game worlds into map tiles
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/natefinch/lumberjack"
)

func createLogger(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename: path,
		MaxSize:  10,
		Compress: true,
	}
}

func setupLogging(path string) {
	log.SetOutput(io.MultiWriter(createLogger(path), os.Stdout))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// runLogger tags every line of one run with a short run id.
func runLogger() (*log.Logger, string) {
	id := uuid.NewString()
	return log.New(log.Writer(), "["+id[:8]+"] ", log.Flags()), id
}
